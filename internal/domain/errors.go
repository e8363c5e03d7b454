package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrConflict           = errors.New("concurrent conflict")
)

// PropagationError reports a failed stats update for one hierarchy node.
// The whole propagation unit rolls back when it occurs, so the recorded
// deltas are safe to reapply on retry.
type PropagationError struct {
	Node   StatsNode
	Deltas Stats
	Err    error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("stats propagation failed at %s: %v", e.Node, e.Err)
}

func (e *PropagationError) Unwrap() error { return e.Err }

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
