package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrNotFound             = errors.New("metric description not found")
	ErrDuplicateDescription = errors.New("duplicate metric description")
	ErrThresholdOrder       = errors.New("thresholds inconsistent with direction")
)
