package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrParse         = errors.New("parse failed")
	ErrUnsupported   = errors.New("unsupported source")
)
