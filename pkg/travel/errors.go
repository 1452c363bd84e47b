package travel

import (
	"errors"
	"fmt"
)

// ErrorKind identifies why a new stay was rejected.
type ErrorKind string

const (
	MissingField ErrorKind = "missing_field"
	InvalidDate  ErrorKind = "invalid_date"
	InvalidRange ErrorKind = "invalid_range"
)

var (
	ErrMissingField = errors.New("all fields are required")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("exit date must not be before entry date")
)

// ValidationError is returned by ValidateNewStay. It matches the sentinel of
// its kind with errors.Is.
type ValidationError struct {
	Kind  ErrorKind
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.sentinel())
}

func (e *ValidationError) Unwrap() error {
	return e.sentinel()
}

func (e *ValidationError) sentinel() error {
	switch e.Kind {
	case MissingField:
		return ErrMissingField
	case InvalidDate:
		return ErrInvalidDate
	default:
		return ErrInvalidRange
	}
}
