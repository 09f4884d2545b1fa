package api

import (
	"net/http"

	"github.com/phrazzld/imagine-api/internal/api/shared"
	"github.com/phrazzld/imagine-api/internal/task"
)

// StatusHandler reports the queue state.
type StatusHandler struct {
	queue task.Submitter
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(queue task.Submitter) *StatusHandler {
	return &StatusHandler{queue: queue}
}

// Status handles GET /status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(h.queue.Status()))
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
