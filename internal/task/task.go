package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
)

// Common errors returned by the Queue
var (
	ErrQueueStopped = errors.New("queue stopped")
	ErrNilWorker    = errors.New("worker cannot be nil")
	ErrNilStore     = errors.New("job store cannot be nil")
)

// Worker produces the outcome of one job.
// Implementations never return an error: every failure is folded into the
// returned GenerationResult.
type Worker interface {
	Generate(ctx context.Context, prompt string, maxRetries int) domain.GenerationResult
}

// Submitter is the write side of the Queue as seen by HTTP handlers.
type Submitter interface {
	Submit(ctx context.Context, prompt string) *Future
	Status() Status
}

// Status is a point-in-time snapshot of the queue.
type Status struct {
	// Running is true between Start and Stop.
	Running bool

	// Busy is true while a job is in flight.
	Busy bool

	// QueueLength counts jobs waiting behind the in-flight one.
	QueueLength int

	// Processed counts successful jobs and Failed counts failed ones,
	// both since the queue was created.
	Processed uint64
	Failed    uint64

	// Uptime is the time since Start, zero before it.
	Uptime time.Duration
}

// job is one queued prompt. It is consumed exactly once by the dispatcher.
type job struct {
	id          uuid.UUID
	seq         uint64
	prompt      string
	submittedAt time.Time
	future      *Future
}
