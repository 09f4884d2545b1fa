package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/store"
	"github.com/phrazzld/imagine-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrPromptTooLong):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueStopped):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, store.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrPromptTooLong):
		return fmt.Sprintf("Prompt must be at most %d characters", domain.MaxPromptLength)

	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request data"

	case errors.Is(err, task.ErrQueueStopped):
		return "Service is shutting down"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example: "Key: 'ImagineRequest.Prompt' Error:Field validation for 'Prompt' failed on the 'max' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
