package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/api/shared"
	"github.com/phrazzld/imagine-api/internal/domain"
)

// List limits for GET /jobs.
const (
	DefaultJobListLimit = 20
	MaxJobListLimit     = 100
)

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// parseLimit reads the "limit" query parameter. A missing value gives
// DefaultJobListLimit and values above MaxJobListLimit are clamped.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultJobListLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, domain.NewValidationError("limit", "must be a positive integer", domain.ErrValidation)
	}
	if limit > MaxJobListLimit {
		limit = MaxJobListLimit
	}
	return limit, nil
}

// handleAPIError maps err to a status code and a safe message and writes the
// response. The full error is only logged.
func handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
