package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
)

// Future is the completion handle returned by Queue.Submit.
// It is resolved exactly once, with either a Success or a Failure outcome.
type Future struct {
	// JobID identifies the job in the history store.
	JobID uuid.UUID

	// Position is the 1-based place of the job among waiting jobs at submit time.
	Position int

	once   sync.Once
	done   chan struct{}
	result domain.GenerationResult
}

func newFuture(id uuid.UUID) *Future {
	return &Future{
		JobID: id,
		done:  make(chan struct{}),
	}
}

// Done returns a channel that is closed once the outcome is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the outcome is available or ctx is done.
// The job keeps running when ctx ends first.
func (f *Future) Wait(ctx context.Context) (domain.GenerationResult, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return domain.GenerationResult{}, ctx.Err()
	}
}

// Result returns the outcome without blocking. ok is false until resolved.
func (f *Future) Result() (result domain.GenerationResult, ok bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return domain.GenerationResult{}, false
	}
}

// resolve sets the outcome. Later calls are ignored.
func (f *Future) resolve(result domain.GenerationResult) bool {
	resolved := false
	f.once.Do(func() {
		f.result = result
		close(f.done)
		resolved = true
	})
	return resolved
}
