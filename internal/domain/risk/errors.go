package risk

import "errors"

// Sentinel kinds for risk errors.
var (
	ErrUnknownLevel = errors.New("unknown risk level")
)
