package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, prompt string, createdAt time.Time) *domain.JobRecord {
	t.Helper()
	rec, err := domain.NewJobRecord(uuid.New(), prompt, createdAt)
	require.NoError(t, err)
	return rec
}

func TestJobStore_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewJobStore(nil)
	now := time.Now().UTC()
	rec := newRecord(t, "cat", now)

	require.NoError(t, s.Create(ctx, rec))
	assert.ErrorIs(t, s.Create(ctx, rec), store.ErrJobExists)

	require.NoError(t, s.MarkProcessing(ctx, rec.ID, now.Add(time.Second)))
	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, got.Status)
	require.NotNil(t, got.StartedAt)

	result := domain.NewSuccess([]string{"a.png", "b.png"}, "cat --v 7", 2)
	require.NoError(t, s.Complete(ctx, rec.ID, result, now.Add(time.Minute)))

	got, err = s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, []string{"a.png", "b.png"}, got.Images)
	assert.Equal(t, 2, got.Attempts)

	// Returned records are copies.
	got.Images[0] = "mutated"
	again, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", again.Images[0])
}

func TestJobStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewJobStore(nil)
	missing := uuid.New()

	_, err := s.GetByID(ctx, missing)
	assert.ErrorIs(t, err, store.ErrJobNotFound)
	assert.True(t, store.IsNotFoundError(err))

	assert.ErrorIs(t, s.MarkProcessing(ctx, missing, time.Now()), store.ErrJobNotFound)
	assert.ErrorIs(t, s.Complete(ctx, missing, domain.NewFailure("x", false, 1), time.Now()), store.ErrJobNotFound)

	err = s.Create(ctx, &domain.JobRecord{ID: uuid.New(), Status: domain.JobStatusPending})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestJobStore_ListRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewJobStore(nil)
	base := time.Now().UTC()

	for i, prompt := range []string{"first", "second", "third"} {
		require.NoError(t, s.Create(ctx, newRecord(t, prompt, base.Add(time.Duration(i)*time.Second))))
	}

	recs, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "third", recs[0].Prompt)
	assert.Equal(t, "second", recs[1].Prompt)

	all, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestJobStore_PruneAndRecover(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewJobStore(nil)
	now := time.Now().UTC()

	old := newRecord(t, "old", now.Add(-48*time.Hour))
	require.NoError(t, s.Create(ctx, old))
	require.NoError(t, s.Complete(ctx, old.ID, domain.NewFailure("boom", true, 3), now.Add(-47*time.Hour)))

	stuck := newRecord(t, "stuck", now.Add(-time.Hour))
	require.NoError(t, s.Create(ctx, stuck))
	require.NoError(t, s.MarkProcessing(ctx, stuck.ID, now.Add(-time.Hour)))

	fresh := newRecord(t, "fresh", now.Add(time.Second))
	require.NoError(t, s.Create(ctx, fresh))

	n, err := s.FailUnfinished(ctx, "interrupted", now, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, "interrupted", got.Error)

	n, err = s.DeleteFinishedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = s.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, got.Status, "Records created after the cutoff are left alone")
	assert.Nil(t, got.FinishedAt)

	_, err = s.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, store.ErrJobNotFound)
	_, err = s.GetByID(ctx, stuck.ID)
	assert.NoError(t, err)
}
