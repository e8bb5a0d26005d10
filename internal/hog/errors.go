package hog

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes controller errors for transport mapping.
type ErrorKind int

const (
	ErrKindSpawnFailed ErrorKind = iota
	ErrKindInternal
)

// HogError is a typed error that callers can inspect for HTTP mapping.
type HogError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *HogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *HogError) Unwrap() error {
	return e.Cause
}

// NewSpawnError creates an error for a generator that could not be started.
func NewSpawnError(message string, cause error) *HogError {
	return &HogError{
		Kind:    ErrKindSpawnFailed,
		Message: message,
		Cause:   cause,
	}
}

// AsHogError attempts to convert an error to a HogError. Returns nil if not
// possible.
func AsHogError(err error) *HogError {
	var hogErr *HogError
	if errors.As(err, &hogErr) {
		return hogErr
	}
	return nil
}

// IsSpawnFailed checks if the error is a spawn-failure error.
func IsSpawnFailed(err error) bool {
	hogErr := AsHogError(err)
	return hogErr != nil && hogErr.Kind == ErrKindSpawnFailed
}
