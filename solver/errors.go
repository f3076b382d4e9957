package solver

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("solver: not initialized - call Init first")
	ErrAlreadyInitialized = errors.New("solver: already initialized")
	ErrFailed             = errors.New("solver: kernel failed, instance unusable")
	ErrInvalidArguments   = errors.New("solver: invalid arguments")
)

// StatusError carries a nonzero kernel status
type StatusError struct {
	Op     string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("solver: %s returned status %d (%s)", e.Op, e.Code, e.Detail)
	}
	return fmt.Sprintf("solver: %s returned status %d", e.Op, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrFailed }

// ValidationError names the argument rejected before reaching the kernel
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("solver: invalid argument %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArguments }

// Code extracts the kernel status from err, or 0 if err carries none
func Code(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
