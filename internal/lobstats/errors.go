package lobstats

import (
	"errors"
	"fmt"
)

// Query validation errors
var (
	ErrInvalidCountryCode = errors.New("invalid country code")
	ErrEmptyLobList       = errors.New("empty line of business list")
	ErrDuplicateLob       = errors.New("duplicate line of business")
)

// ValidationError describes a rejected query parameter. It wraps one of the
// query validation sentinels.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParseError reports a malformed source cell or header. Row is 1-based and
// counts the header as row 1; Row 0 refers to the source as a whole.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	if e.Value != "" {
		return fmt.Sprintf("parse error at row %d, column %q: value %q: %v", e.Row, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("parse error at row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingSourceError reports that the dataset source could not be opened or read.
type MissingSourceError struct {
	Source string
	Err    error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("dataset source %q unavailable: %v", e.Source, e.Err)
}

func (e *MissingSourceError) Unwrap() error {
	return e.Err
}

// InvalidRangeError reports a year window whose end precedes its start.
type InvalidRangeError struct {
	YearFrom int
	YearTo   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid year range: yearTo %d is before yearFrom %d", e.YearTo, e.YearFrom)
}

// IsValidationError reports whether err is a query validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
