// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrPromptTooLong is returned when a prompt exceeds MaxPromptLength.
	ErrPromptTooLong = errors.New("prompt too long")
)

// MaxPromptLength is the longest prompt, in characters, accepted for generation.
const MaxPromptLength = 4000

// ValidationError describes a failed check on a single field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError. err defaults to ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
