package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
)

// MigrationTableName is the goose version table used by this service.
const MigrationTableName = "schema_migrations"

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// slogGooseLogger adapts the goose logger interface to slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress messages at info level
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf forwards goose errors at error level. It does not exit; the error
// is returned to the caller as well.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrate runs a goose command against the embedded migrations.
// Supported commands are up, down, reset, status and version.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	log := logger.With("component", "migrations", "command", command)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, migrationsDir)
	case "down":
		err = goose.DownContext(ctx, db, migrationsDir)
	case "reset":
		err = goose.ResetContext(ctx, db, migrationsDir)
	case "status":
		err = goose.StatusContext(ctx, db, migrationsDir)
	case "version":
		err = goose.VersionContext(ctx, db, migrationsDir)
	default:
		return fmt.Errorf("unknown migration command: %s (expected up, down, reset, status, or version)", command)
	}
	if err != nil {
		log.Error("migration command failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration command executed successfully",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
