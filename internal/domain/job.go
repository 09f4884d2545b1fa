package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the processing state of a generation job
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Common validation errors for JobRecord
var (
	ErrEmptyJobID      = errors.New("job ID cannot be empty")
	ErrEmptyJobPrompt  = errors.New("job prompt cannot be empty")
	ErrInvalidJobState = errors.New("invalid job status")
)

// JobRecord is the history entry kept for every submitted job.
// It is an audit trail only: pending records are never replayed.
type JobRecord struct {
	ID         uuid.UUID  `json:"id"`
	Prompt     string     `json:"prompt"`
	Status     JobStatus  `json:"status"`
	Images     []string   `json:"images"`
	Error      string     `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewJobRecord creates a pending record for a freshly submitted job.
func NewJobRecord(id uuid.UUID, prompt string, createdAt time.Time) (*JobRecord, error) {
	rec := &JobRecord{
		ID:        id,
		Prompt:    prompt,
		Status:    JobStatusPending,
		Images:    []string{},
		CreatedAt: createdAt.UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the JobRecord has valid data.
func (r *JobRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if r.Prompt == "" {
		return ErrEmptyJobPrompt
	}

	if !IsValidJobStatus(r.Status) {
		return ErrInvalidJobState
	}

	return nil
}

// MarkProcessing moves the record into the processing state.
func (r *JobRecord) MarkProcessing(at time.Time) {
	at = at.UTC()
	r.Status = JobStatusProcessing
	r.StartedAt = &at
}

// Finish applies a generation outcome to the record.
func (r *JobRecord) Finish(result GenerationResult, at time.Time) {
	at = at.UTC()
	r.FinishedAt = &at
	r.Attempts = result.Attempts
	if result.OK() {
		r.Status = JobStatusCompleted
		r.Images = append([]string{}, result.Success.Images...)
		r.Error = ""
		return
	}
	r.Status = JobStatusFailed
	r.Images = []string{}
	r.Error = result.Failure.Message
}

// Finished reports whether the record reached a terminal state.
func (r *JobRecord) Finished() bool {
	return r.Status == JobStatusCompleted || r.Status == JobStatusFailed
}

// IsValidJobStatus checks if the given status is a valid JobStatus.
func IsValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
