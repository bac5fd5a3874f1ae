package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrNoSource        = errors.New("no dataset source configured")
	ErrModelNotFound   = errors.New("model not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicateModel  = errors.New("duplicate model id")
)
