// Package main implements the entry point for the imagine-api server, which
// turns text prompts into image URLs by driving a hosted image generator
// through a headless browser, one job at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/imagine-api/internal/config"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a database migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateCmd); err != nil {
		log.Fatalf("imagine-api: %v", err)
	}
}

// run loads configuration, sets up logging and then either executes a
// migration command or serves HTTP until ctx is cancelled.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, migrateCmd, l)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadAppConfig loads the configuration and logs its non-sensitive parts.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"max_retries", cfg.Queue.MaxRetries,
		"retry_delay", cfg.Queue.RetryDelay.String(),
		"target_url", cfg.Browser.TargetURL,
		"headless", cfg.Browser.Headless)

	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url_present", true, "auto_migrate", cfg.Database.AutoMigrate)
	}

	return cfg, nil
}
