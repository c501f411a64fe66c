package models

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a recoverable shortage of bars for a window or
// indicator period. Classifiers degrade to UNKNOWN/neutral instead of
// surfacing it to the caller.
var ErrInsufficientData = errors.New("insufficient data")

// DataUnavailableError wraps a transient upstream fetch failure. Each
// classifier catches it at its boundary and degrades for the cycle.
type DataUnavailableError struct {
	Instrument string
	Err        error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for %s: %v", e.Instrument, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// IsDataUnavailable reports whether err is (or wraps) a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var dua *DataUnavailableError
	return errors.As(err, &dua)
}

// ConfigError is fatal at startup: running a cycle with wrong thresholds
// would produce unaudited bad decisions.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}
