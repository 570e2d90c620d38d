package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
)

// Session state errors. All of them wrap ErrConflict so transports can map
// them to a single status without knowing every reason.
var (
	ErrEmptyDeck        = fmt.Errorf("%w: deck has no cards", ErrConflict)
	ErrNoActiveSession  = fmt.Errorf("%w: no active session", ErrConflict)
	ErrNoCurrentCard    = fmt.Errorf("%w: no current card", ErrConflict)
	ErrAnswerPending    = fmt.Errorf("%w: answer already recorded for current card", ErrConflict)
	ErrLastCard         = fmt.Errorf("%w: cannot delete the last card of the deck", ErrConflict)
	ErrAutoPlayRunning  = fmt.Errorf("%w: auto-play is running", ErrConflict)
	ErrSessionCompleted = fmt.Errorf("%w: session already completed", ErrConflict)
)

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

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
