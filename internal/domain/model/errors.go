package model

import "errors"

// Sentinel kinds for model table errors.
var (
	ErrUnknownEnum = errors.New("unknown enum value")
)
