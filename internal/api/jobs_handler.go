package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/imagine-api/internal/api/shared"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/phrazzld/imagine-api/internal/store"
)

// JobsHandler serves the job history.
type JobsHandler struct {
	jobs   store.JobStore
	logger *slog.Logger
}

// NewJobsHandler creates a JobsHandler.
func NewJobsHandler(jobs store.JobStore, logger *slog.Logger) *JobsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{jobs: jobs, logger: logger.With("component", "jobs_handler")}
}

// GetJob handles GET /jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathUUID(r, "id")
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	rec, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		log.Debug("job lookup failed", "job_id", id)
		handleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(rec))
}

// ListJobs handles GET /jobs?limit=N, newest first.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, err := parseLimit(r)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	recs, err := h.jobs.ListRecent(r.Context(), limit)
	if err != nil {
		log.Debug("job listing failed", "limit", limit)
		handleAPIError(w, r, err)
		return
	}

	resp := JobListResponse{Jobs: make([]JobResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Jobs = append(resp.Jobs, jobToResponse(rec))
	}
	resp.Count = len(resp.Jobs)
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
