package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/imagine-api/internal/config"
	"github.com/phrazzld/imagine-api/internal/platform/memory"
	"github.com/phrazzld/imagine-api/internal/platform/postgres"
	"github.com/phrazzld/imagine-api/internal/store"
)

// errNoDatabase is returned when a database operation is requested without a database URL.
var errNoDatabase = errors.New("database url is not configured")

// setupJobStore returns the job history store. Without a database URL the
// history lives in memory and the returned *sql.DB is nil.
func setupJobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.JobStore, *sql.DB, error) {
	if cfg.Database.URL == "" {
		logger.Info("No database configured, keeping job history in memory")
		return memory.NewJobStore(logger), nil, nil
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, "up", logger); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return postgres.NewPostgresJobStore(db), db, nil
}

// runMigrations executes a single migration command against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Database.URL == "" {
		return errNoDatabase
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	logger.Info("Executing migrations", "command", command)
	return postgres.Migrate(ctx, db, command, logger)
}
