package probe

import "errors"

// Sentinel kinds for probe failures.
var (
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrStatus        = errors.New("unexpected status")
	ErrInconsistent  = errors.New("inconsistent report")
	ErrRequestFailed = errors.New("requests failed")
)
