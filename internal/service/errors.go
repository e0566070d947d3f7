package service

import (
	"errors"
	"fmt"
)

// ErrVerificationFailed is returned when a payment callback signature does
// not match. The order is left untouched; callers treat this as a
// client-correctable rejection, not a missing resource.
var ErrVerificationFailed = errors.New("payment signature verification failed")

// ValidationError rejects an order draft before any persistence attempt.
// Field names the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError rejects a status change the transition table does not
// allow.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status transition %s -> %s is not allowed", e.From, e.To)
}
