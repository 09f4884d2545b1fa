package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
)

// JobStore defines the interface for job history persistence.
// The history is an audit trail: nothing read from it is ever re-queued.
type JobStore interface {
	// Create saves a new pending job record.
	// Returns ErrInvalidEntity if the record fails validation and
	// ErrJobExists if a record with the same ID is already stored.
	Create(ctx context.Context, job *domain.JobRecord) error

	// MarkProcessing records that the job was dispatched at the given time.
	// Returns ErrJobNotFound if the job does not exist.
	MarkProcessing(ctx context.Context, id uuid.UUID, at time.Time) error

	// Complete stores the final outcome of a job.
	// Returns ErrJobNotFound if the job does not exist.
	Complete(ctx context.Context, id uuid.UUID, result domain.GenerationResult, at time.Time) error

	// GetByID retrieves a job record by its ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error)

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.JobRecord, error)

	// DeleteFinishedBefore removes completed and failed records that finished
	// before cutoff and returns how many were removed.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// FailUnfinished marks every pending or processing record created before
	// createdBefore as failed with the given message. It closes out records
	// left behind by a previous process and returns how many were changed.
	FailUnfinished(ctx context.Context, message string, createdBefore, at time.Time) (int64, error)
}
