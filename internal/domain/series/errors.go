package series

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel kinds for reshaping errors.
var (
	ErrEmptyInput           = errors.New("no observations after filtering")
	ErrMissingSeries        = errors.New("default-rate series missing")
	ErrDuplicateObservation = errors.New("duplicate observation")
	ErrNonNumeric           = errors.New("non-numeric value")
	ErrInvalidMode          = errors.New("invalid error mode")
	ErrInvalidRange         = errors.New("start date after end date")
)

// DuplicateError identifies the observation that appeared twice.
type DuplicateError struct {
	ModelID int
	Metric  string
	Date    time.Time
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate observation: model %d metric %s date %s", e.ModelID, e.Metric, e.Date.Format(time.DateOnly))
}

// Unwrap lets errors.Is match ErrDuplicateObservation.
func (e *DuplicateError) Unwrap() error { return ErrDuplicateObservation }
