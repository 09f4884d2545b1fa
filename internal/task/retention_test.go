package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPruner_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewPruner(nil, PrunerConfig{Retention: time.Hour, Schedule: "@hourly"}, testLogger())
	assert.ErrorIs(t, err, ErrNilStore)

	_, err = NewPruner(NewMockJobStore(), PrunerConfig{Retention: 0, Schedule: "@hourly"}, testLogger())
	assert.Error(t, err)

	_, err = NewPruner(NewMockJobStore(), PrunerConfig{Retention: time.Hour, Schedule: "every tuesday"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid prune schedule")

	p, err := NewPruner(NewMockJobStore(), PrunerConfig{Retention: time.Hour, Schedule: "*/5 * * * *"}, testLogger())
	require.NoError(t, err)
	require.NoError(t, p.Start())
	p.Stop()
}

func TestPruner_Prune(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	jobStore := NewMockJobStore()
	ctx := context.Background()

	addFinished := func(prompt string, finishedAt time.Time) uuid.UUID {
		rec, err := domain.NewJobRecord(uuid.New(), prompt, finishedAt.Add(-time.Minute))
		require.NoError(t, err)
		require.NoError(t, jobStore.Create(ctx, rec))
		require.NoError(t, jobStore.Complete(ctx, rec.ID, domain.NewSuccess(nil, prompt, 1), finishedAt))
		return rec.ID
	}

	old := addFinished("old", now.Add(-48*time.Hour))
	recent := addFinished("recent", now.Add(-time.Hour))

	unfinished, err := domain.NewJobRecord(uuid.New(), "pending", now.Add(-72*time.Hour))
	require.NoError(t, err)
	require.NoError(t, jobStore.Create(ctx, unfinished))

	p, err := NewPruner(jobStore, PrunerConfig{Retention: 24 * time.Hour, Schedule: "@hourly"}, testLogger())
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	n, err := p.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = jobStore.GetByID(ctx, old)
	assert.Error(t, err, "Old finished record should be deleted")
	_, err = jobStore.GetByID(ctx, recent)
	assert.NoError(t, err)
	_, err = jobStore.GetByID(ctx, unfinished.ID)
	assert.NoError(t, err, "Unfinished records are never pruned")
}
