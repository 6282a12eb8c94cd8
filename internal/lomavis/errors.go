package lomavis

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// ValidationError is a parameter problem detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UnsupportedError names the key that has no executor.
type UnsupportedError struct {
	Key Key
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("The operation '%s' is not supported for resource '%s'", e.Key.Operation, e.Key.Resource)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupportedOperation }
