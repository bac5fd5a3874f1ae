package synth

import "errors"

// ErrInvalidOutput reports an Export call with nowhere to write.
var ErrInvalidOutput = errors.New("invalid output")
