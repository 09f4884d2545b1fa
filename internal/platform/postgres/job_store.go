package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/phrazzld/imagine-api/internal/store"
)

// PostgresJobStore implements the store.JobStore interface using PostgreSQL
type PostgresJobStore struct {
	db store.DBTX
}

var _ store.JobStore = (*PostgresJobStore)(nil)

// NewPostgresJobStore creates a new PostgresJobStore
func NewPostgresJobStore(db store.DBTX) *PostgresJobStore {
	return &PostgresJobStore{
		db: db,
	}
}

const jobColumns = `id, prompt, status, images, error_message, attempts, created_at, started_at, finished_at`

// Create persists a new job record
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.JobRecord) error {
	log := logger.FromContext(ctx)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	images, err := json.Marshal(nonNil(job.Images))
	if err != nil {
		return fmt.Errorf("failed to encode job images: %w", err)
	}

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.Prompt,
		job.Status,
		images,
		job.Error,
		job.Attempts,
		job.CreatedAt.UTC(),
		job.StartedAt,
		job.FinishedAt,
	)
	if err != nil {
		log.Error("failed to save job",
			"job_id", job.ID,
			"error", err)
		if IsUniqueViolation(err) {
			return store.ErrJobExists
		}
		return store.NewStoreError("job", "create", "insert failed", MapError(err))
	}

	return nil
}

// MarkProcessing records the dispatch of a job
func (s *PostgresJobStore) MarkProcessing(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1, started_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, domain.JobStatusProcessing, at.UTC(), id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to mark job as processing",
			"job_id", id,
			"error", err)
		return store.NewStoreError("job", "mark processing", "update failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrJobNotFound)
}

// Complete stores the final outcome of a job
func (s *PostgresJobStore) Complete(
	ctx context.Context,
	id uuid.UUID,
	result domain.GenerationResult,
	at time.Time,
) error {
	rec := domain.JobRecord{ID: id}
	rec.Finish(result, at)

	images, err := json.Marshal(rec.Images)
	if err != nil {
		return fmt.Errorf("failed to encode job images: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $1, images = $2, error_message = $3, attempts = $4, finished_at = $5
		WHERE id = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		rec.Status,
		images,
		rec.Error,
		rec.Attempts,
		rec.FinishedAt,
		id,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to store job outcome",
			"job_id", id,
			"status", rec.Status,
			"error", err)
		return store.NewStoreError("job", "complete", "update failed", MapError(err))
	}

	return CheckRowsAffected(res, store.ErrJobNotFound)
}

// GetByID retrieves a job record by its ID
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	rec, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrJobNotFound
		}
		logger.FromContext(ctx).Error("failed to get job",
			"job_id", id,
			"error", err)
		return nil, store.NewStoreError("job", "get", "query failed", MapError(err))
	}
	return rec, nil
}

// ListRecent returns up to limit records, newest first
func (s *PostgresJobStore) ListRecent(ctx context.Context, limit int) ([]*domain.JobRecord, error) {
	log := logger.FromContext(ctx)

	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list jobs", "error", err)
		return nil, store.NewStoreError("job", "list", "query failed", MapError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	jobs := []*domain.JobRecord{}
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			log.Error("failed to scan job row", "error", err)
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, rec)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows", "error", err)
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// DeleteFinishedBefore removes finished records older than cutoff
func (s *PostgresJobStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM jobs
		WHERE status IN ($1, $2) AND finished_at < $3
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusCompleted,
		domain.JobStatusFailed,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, store.NewStoreError("job", "prune", "delete failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// FailUnfinished marks every pending or processing record created before
// createdBefore as failed
func (s *PostgresJobStore) FailUnfinished(
	ctx context.Context,
	message string,
	createdBefore, at time.Time,
) (int64, error) {
	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, finished_at = $3, images = '[]'::jsonb
		WHERE status IN ($4, $5) AND created_at < $6
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusFailed,
		message,
		at.UTC(),
		domain.JobStatusPending,
		domain.JobStatusProcessing,
		createdBefore.UTC(),
	)
	if err != nil {
		return 0, store.NewStoreError("job", "recover", "update failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.JobRecord, error) {
	var (
		rec        domain.JobRecord
		images     []byte
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Prompt,
		&rec.Status,
		&images,
		&rec.Error,
		&rec.Attempts,
		&rec.CreatedAt,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}

	rec.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &rec.Images); err != nil {
			return nil, fmt.Errorf("failed to decode job images: %w", err)
		}
	}
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		rec.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		rec.FinishedAt = &t
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	return &rec, nil
}

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return store.IsNotFoundError(MapError(err))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
