package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/phrazzld/imagine-api/internal/store"
)

// JobStore implements store.JobStore in process memory.
// It is used when no database is configured; history is lost on restart.
type JobStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.JobRecord
	logger  *slog.Logger
}

var _ store.JobStore = (*JobStore)(nil)

// NewJobStore creates an empty in-memory JobStore.
func NewJobStore(logger *slog.Logger) *JobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobStore{
		records: make(map[uuid.UUID]*domain.JobRecord),
		logger:  logger.With("store", "memory"),
	}
}

// Create saves a new job record.
func (s *JobStore) Create(ctx context.Context, job *domain.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[job.ID]; exists {
		return store.ErrJobExists
	}
	s.records[job.ID] = cloneRecord(job)

	logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "job record created", "job_id", job.ID)
	return nil
}

// MarkProcessing records the dispatch of a job.
func (s *JobStore) MarkProcessing(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return store.ErrJobNotFound
	}
	rec.MarkProcessing(at)
	return nil
}

// Complete stores the outcome of a job.
func (s *JobStore) Complete(ctx context.Context, id uuid.UUID, result domain.GenerationResult, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return store.ErrJobNotFound
	}
	rec.Finish(result, at)
	return nil
}

// GetByID returns a copy of the job record.
func (s *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, store.ErrJobNotFound
	}
	return cloneRecord(rec), nil
}

// ListRecent returns up to limit records, newest first.
func (s *JobStore) ListRecent(ctx context.Context, limit int) ([]*domain.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.JobRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteFinishedBefore removes finished records older than cutoff.
func (s *JobStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.records {
		if rec.Finished() && rec.FinishedAt != nil && rec.FinishedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// FailUnfinished marks every pending or processing record created before
// createdBefore as failed.
func (s *JobStore) FailUnfinished(
	ctx context.Context,
	message string,
	createdBefore, at time.Time,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.records {
		if !rec.Finished() && rec.CreatedAt.Before(createdBefore) {
			rec.Finish(domain.NewFailure(message, true, rec.Attempts), at)
			n++
		}
	}
	return n, nil
}

func cloneRecord(rec *domain.JobRecord) *domain.JobRecord {
	cp := *rec
	cp.Images = append([]string{}, rec.Images...)
	if rec.StartedAt != nil {
		t := *rec.StartedAt
		cp.StartedAt = &t
	}
	if rec.FinishedAt != nil {
		t := *rec.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
