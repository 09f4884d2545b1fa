package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/store"
)

// MockJobStore implements the store.JobStore interface for testing.
// The Fn fields can be replaced to inject failures.
type MockJobStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]*domain.JobRecord
	events  []string

	CreateFn         func(ctx context.Context, job *domain.JobRecord) error
	MarkProcessingFn func(ctx context.Context, id uuid.UUID, at time.Time) error
	CompleteFn       func(ctx context.Context, id uuid.UUID, result domain.GenerationResult, at time.Time) error
	FailUnfinishedFn func(ctx context.Context, message string, createdBefore, at time.Time) (int64, error)
}

var _ store.JobStore = (*MockJobStore)(nil)

// NewMockJobStore creates a new MockJobStore with default implementations
func NewMockJobStore() *MockJobStore {
	s := &MockJobStore{
		records: make(map[uuid.UUID]*domain.JobRecord),
	}

	s.CreateFn = func(ctx context.Context, job *domain.JobRecord) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		if _, exists := s.records[job.ID]; exists {
			return store.ErrJobExists
		}
		rec := *job
		s.records[job.ID] = &rec
		return nil
	}

	s.MarkProcessingFn = func(ctx context.Context, id uuid.UUID, at time.Time) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		rec, exists := s.records[id]
		if !exists {
			return store.ErrJobNotFound
		}
		rec.MarkProcessing(at)
		return nil
	}

	s.CompleteFn = func(ctx context.Context, id uuid.UUID, result domain.GenerationResult, at time.Time) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		rec, exists := s.records[id]
		if !exists {
			return store.ErrJobNotFound
		}
		rec.Finish(result, at)
		return nil
	}

	s.FailUnfinishedFn = func(ctx context.Context, message string, createdBefore, at time.Time) (int64, error) {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		var n int64
		for _, rec := range s.records {
			if !rec.Finished() && rec.CreatedAt.Before(createdBefore) {
				rec.Finish(domain.NewFailure(message, true, rec.Attempts), at)
				n++
			}
		}
		return n, nil
	}

	return s
}

func (s *MockJobStore) record(event string) {
	s.mutex.Lock()
	s.events = append(s.events, event)
	s.mutex.Unlock()
}

// Events returns the names of the store calls made so far, in order.
func (s *MockJobStore) Events() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]string(nil), s.events...)
}

// Create saves a new job record
func (s *MockJobStore) Create(ctx context.Context, job *domain.JobRecord) error {
	s.record("create")
	return s.CreateFn(ctx, job)
}

// MarkProcessing records the dispatch of a job
func (s *MockJobStore) MarkProcessing(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.record("processing")
	return s.MarkProcessingFn(ctx, id, at)
}

// Complete stores the outcome of a job
func (s *MockJobStore) Complete(
	ctx context.Context,
	id uuid.UUID,
	result domain.GenerationResult,
	at time.Time,
) error {
	s.record("complete")
	return s.CompleteFn(ctx, id, result, at)
}

// GetByID returns a copy of the stored record
func (s *MockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, store.ErrJobNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListRecent returns up to limit records, newest first
func (s *MockJobStore) ListRecent(ctx context.Context, limit int) ([]*domain.JobRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*domain.JobRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteFinishedBefore removes finished records older than cutoff
func (s *MockJobStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var n int64
	for id, rec := range s.records {
		if rec.Finished() && rec.FinishedAt != nil && rec.FinishedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// FailUnfinished closes out records that never finished
func (s *MockJobStore) FailUnfinished(
	ctx context.Context,
	message string,
	createdBefore, at time.Time,
) (int64, error) {
	s.record("fail_unfinished")
	return s.FailUnfinishedFn(ctx, message, createdBefore, at)
}
