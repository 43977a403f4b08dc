// Package orchestrator ties the store, the workflow engine, and the
// notification side effects together behind serialized per-request mutations.
package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition indicates a mutation that defies the state machine,
	// such as voting on a terminal request.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPreconditionFailed indicates an operation whose guard no longer
	// holds, such as deleting a request after review began.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrValidation indicates malformed or missing input. Nothing is
	// committed when validation fails.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports malformed input with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransitionError wraps state machine violations with request context.
type TransitionError struct {
	Op        string
	RequestID string
	Status    string
	Err       error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed for request %s in status %s: %v",
		e.Op, e.RequestID, e.Status, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func (e *TransitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error indicates malformed input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidTransition checks if an error indicates a state machine violation.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsPreconditionFailed checks if an error indicates a failed operation guard.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}
