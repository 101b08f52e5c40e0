package domain

import "fmt"

// ValidationError rejects a malformed query before any store access.
// Surfaced to the caller verbatim as a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidTimeRangeError rejects a time range that specifies both or neither
// of the relative/absolute forms, or an inverted interval.
type InvalidTimeRangeError struct {
	Reason string
}

func (e *InvalidTimeRangeError) Error() string {
	return "invalid time range: " + e.Reason
}
