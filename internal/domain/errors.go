package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStationNotFound is returned by callers that need an error value for
	// a station missing from the fetched table. LocateStation itself reports
	// absence with a boolean.
	ErrStationNotFound = errors.New("station not found")

	// ErrRowTooShort marks a row that does not reach every referenced column.
	ErrRowTooShort = errors.New("row too short")
)

// NormalizationError reports a located row whose fatal fields could not be
// parsed. No Observation is produced for that row.
type NormalizationError struct {
	Field string // "row" or "date"
	Value string
	Err   error
}

func (e *NormalizationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("normalize %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("normalize %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }
