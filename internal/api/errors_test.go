package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/store"
	"github.com/phrazzld/imagine-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"nil error", nil, http.StatusInternalServerError},
		{"job not found", store.ErrJobNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get job: %w", store.ErrJobNotFound), http.StatusNotFound},
		{"store error not found", store.NewStoreError("job", "get", "no rows", store.ErrNotFound), http.StatusNotFound},
		{"duplicate", store.ErrJobExists, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"validation error", domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest},
		{"prompt too long", domain.ErrPromptTooLong, http.StatusBadRequest},
		{"queue stopped", task.ErrQueueStopped, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStatus, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, "An unexpected error occurred"},
		{"job not found", fmt.Errorf("lookup: %w", store.ErrJobNotFound), "Job not found"},
		{"generic not found", store.ErrNotFound, "Resource not found"},
		{"duplicate", store.ErrJobExists, "Resource already exists"},
		{"prompt too long", domain.ErrPromptTooLong, "Prompt must be at most 4000 characters"},
		{"field validation", domain.NewValidationError("limit", "must be a positive integer", nil), "Invalid limit: must be a positive integer"},
		{"invalid entity", store.ErrInvalidEntity, "Invalid request data"},
		{"queue stopped", task.ErrQueueStopped, "Service is shutting down"},
		{
			"internal details hidden",
			errors.New("pq: relation jobs does not exist at postgres://u:p@db/imagine"),
			"An unexpected error occurred",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(&ImagineRequest{Prompt: string(make([]rune, domain.MaxPromptLength+1))})
	require.Error(t, err)
	assert.Equal(t, "Invalid Prompt: too long", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
