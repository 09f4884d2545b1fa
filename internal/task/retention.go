package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/phrazzld/imagine-api/internal/store"
	"github.com/robfig/cron/v3"
)

// PrunerConfig holds configuration for history retention
type PrunerConfig struct {
	// Retention is how long finished job records are kept.
	Retention time.Duration

	// Schedule is a standard cron expression or descriptor such as "@hourly".
	Schedule string
}

// Pruner periodically deletes finished job records older than the retention window.
type Pruner struct {
	store  store.JobStore
	config PrunerConfig
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time
}

// NewPruner creates a Pruner. The schedule is parsed up front so a typo fails at startup.
func NewPruner(jobStore store.JobStore, config PrunerConfig, logger *slog.Logger) (*Pruner, error) {
	if jobStore == nil {
		return nil, ErrNilStore
	}
	if config.Retention <= 0 {
		return nil, errors.New("retention must be positive")
	}
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", config.Schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pruner{
		store:  jobStore,
		config: config,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.With("component", "pruner"),
		now:    time.Now,
	}, nil
}

// Start schedules the prune job and starts the cron scheduler.
func (p *Pruner) Start() error {
	_, err := p.cron.AddFunc(p.config.Schedule, func() {
		ctx := logger.WithLogger(context.Background(), p.logger)
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("failed to prune job history", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule history pruning: %w", err)
	}

	p.cron.Start()
	p.logger.Info("history pruning scheduled",
		"schedule", p.config.Schedule,
		"retention", p.config.Retention.String())
	return nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

// Prune deletes finished records older than the retention window.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.config.Retention)

	n, err := p.store.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete finished jobs: %w", err)
	}

	logger.FromContextOrDefault(ctx, p.logger).Info("pruned job history",
		"deleted", n,
		"cutoff", cutoff)
	return n, nil
}
