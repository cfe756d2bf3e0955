package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by this package (and by Store
// implementations) wraps exactly one of these sentinels.
var (
	ErrDateParse         = errors.New("invalid display date")
	ErrInvalidStatus     = errors.New("invalid bookmark status")
	ErrInvalidTransition = errors.New("invalid bookmark status transition")
	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrInvalidBookmark   = errors.New("invalid bookmark")
	ErrRecordNotFound    = errors.New("record not found")
	ErrDuplicateRecord   = errors.New("duplicate record")
)

// DateParseError reports a display date that matches none of the known formats.
type DateParseError struct {
	Input string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("can't parse date from: %q", e.Input)
}

func (e *DateParseError) Unwrap() error { return ErrDateParse }

// IsClientError reports whether err is caused by bad caller input
// (as opposed to a missing record or an infrastructure failure).
func IsClientError(err error) bool {
	return errors.Is(err, ErrDateParse) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidCursor) ||
		errors.Is(err, ErrInvalidBookmark)
}
