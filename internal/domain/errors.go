package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProjectLocked is returned for mutations of archived or cancelled projects.
	ErrProjectLocked = errors.New("project is locked")

	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrValidation marks input rejected before anything is written.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries the message of a rejected field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalidf formats a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
