package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/imagine-api/internal/config"
	"github.com/phrazzld/imagine-api/internal/generation"
	"github.com/phrazzld/imagine-api/internal/platform/browser"
	"github.com/phrazzld/imagine-api/internal/store"
	"github.com/phrazzld/imagine-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when job history is kept in memory.
	db   *sql.DB
	jobs store.JobStore

	driver *browser.Driver
	worker *generation.Worker
	queue  *task.Queue
	pruner *task.Pruner
}

// newApplication creates a new application instance with all dependencies
// initialized. Nothing is started: the browser launches on the first job and
// the queue and pruner start in Run.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.jobs, app.db, err = setupJobStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app.driver, err = browser.NewDriver(cfg.Browser, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create browser driver: %w", err)
	}

	app.worker, err = generation.NewWorker(app.driver, generation.WorkerConfig{
		RetryDelay: cfg.Queue.RetryDelay,
	}, logger.With("component", "worker"))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	app.queue, err = task.NewQueue(app.worker, app.jobs, task.QueueConfig{
		MaxRetries: cfg.Queue.MaxRetries,
	}, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	app.pruner, err = task.NewPruner(app.jobs, task.PrunerConfig{
		Retention: cfg.History.Retention,
		Schedule:  cfg.History.PruneSchedule,
	}, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create history pruner: %w", err)
	}

	logger.Info("Application initialized successfully",
		"history", historyBackend(app.db))
	return app, nil
}

// start starts the queue and the history pruner.
func (app *application) start() error {
	if err := app.queue.Start(); err != nil {
		return fmt.Errorf("failed to start queue: %w", err)
	}
	if err := app.pruner.Start(); err != nil {
		return fmt.Errorf("failed to start history pruner: %w", err)
	}
	return nil
}

// Run starts the background components and serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if err := app.start(); err != nil {
		app.cleanup()
		return err
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
// It is safe to call on a partially initialized application.
func (app *application) cleanup() {
	if app.queue != nil {
		app.queue.Stop()
	}
	if app.pruner != nil {
		app.pruner.Stop()
	}
	if app.driver != nil {
		if err := app.driver.Close(); err != nil {
			app.logger.Error("Error closing browser", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

func historyBackend(db *sql.DB) string {
	if db == nil {
		return "memory"
	}
	return "postgres"
}
