package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/task"
)

// ImagineRequest is the body of POST /imagine. An empty prompt selects the
// configured default.
type ImagineRequest struct {
	Prompt string `json:"prompt" validate:"max=4000"`
}

// SuccessResponse is returned when a job produced images.
type SuccessResponse struct {
	Success bool      `json:"success"`
	JobID   uuid.UUID `json:"job_id"`
	Images  []string  `json:"images"`
	Prompt  string    `json:"prompt"`
	Count   int       `json:"count"`
}

// FailureResponse is returned when a job exhausted its attempts.
type FailureResponse struct {
	Success bool      `json:"success"`
	JobID   uuid.UUID `json:"job_id"`
	Error   string    `json:"error"`
	Retry   bool      `json:"retry"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Running       bool    `json:"running"`
	Busy          bool    `json:"busy"`
	QueueLength   int     `json:"queue_length"`
	Processed     uint64  `json:"processed"`
	Failed        uint64  `json:"failed"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// JobResponse is one job history record.
type JobResponse struct {
	ID         uuid.UUID        `json:"id"`
	Prompt     string           `json:"prompt"`
	Status     domain.JobStatus `json:"status"`
	Images     []string         `json:"images"`
	Error      string           `json:"error,omitempty"`
	Attempts   int              `json:"attempts"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// JobListResponse is the body of GET /jobs.
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

func resultToResponse(jobID uuid.UUID, result domain.GenerationResult) (int, interface{}) {
	if result.OK() {
		return http.StatusOK, SuccessResponse{
			Success: true,
			JobID:   jobID,
			Images:  result.Success.Images,
			Prompt:  result.Success.Prompt,
			Count:   len(result.Success.Images),
		}
	}

	resp := FailureResponse{Success: false, JobID: jobID, Error: "generation failed"}
	if result.Failure != nil {
		resp.Error = result.Failure.Message
		resp.Retry = result.Failure.Retryable
	}
	return http.StatusInternalServerError, resp
}

func statusToResponse(s task.Status) StatusResponse {
	return StatusResponse{
		Running:       s.Running,
		Busy:          s.Busy,
		QueueLength:   s.QueueLength,
		Processed:     s.Processed,
		Failed:        s.Failed,
		UptimeSeconds: s.Uptime.Seconds(),
	}
}

func jobToResponse(rec *domain.JobRecord) JobResponse {
	images := rec.Images
	if images == nil {
		images = []string{}
	}
	return JobResponse{
		ID:         rec.ID,
		Prompt:     rec.Prompt,
		Status:     rec.Status,
		Images:     images,
		Error:      rec.Error,
		Attempts:   rec.Attempts,
		CreatedAt:  rec.CreatedAt,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
}
