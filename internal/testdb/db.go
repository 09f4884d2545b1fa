//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/imagine-api/internal/platform/postgres"
)

var migrateOnce sync.Once

// Open connects to the test database and applies all migrations once per
// test binary. The connection is closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := DatabaseURL()
	if dbURL == "" {
		if IsCI() {
			t.Fatalf("no test database configured: set %s or %s", EnvTestDatabaseURL, EnvDatabaseURL)
		}
		t.Skipf("%s not set, skipping integration test", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := postgres.Open(ctx, dbURL, logger)
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", MaskDatabaseURL(dbURL), err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", logger)
	})
	if migrateErr != nil {
		t.Fatalf("failed to migrate test database: %v", migrateErr)
	}

	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
