package postgres

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := embedMigrations.ReadDir(migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries, "at least one migration must be embedded")

	for _, e := range entries {
		data, err := embedMigrations.ReadFile(migrationsDir + "/" + e.Name())
		require.NoError(t, err)
		content := string(data)
		assert.True(t, strings.Contains(content, "-- +goose Up"), "%s lacks an Up section", e.Name())
		assert.True(t, strings.Contains(content, "-- +goose Down"), "%s lacks a Down section", e.Name())
	}
}

func TestMigrate_UnknownCommand(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := Migrate(context.Background(), nil, "sideways", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestSlogGooseLogger(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	l := &slogGooseLogger{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	l.Printf("applied %d migrations", 1)
	l.Fatalf("failed: %s", "boom")

	assert.Contains(t, buf.String(), "applied 1 migrations")
	assert.Contains(t, buf.String(), "failed: boom")
}
