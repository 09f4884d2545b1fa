package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
)

// WorkerConfig holds the retry policy of a Worker.
type WorkerConfig struct {
	// RetryDelay is the fixed pause between two attempts. It stands in for a
	// "ready to try again" signal the upstream site does not provide.
	RetryDelay time.Duration
}

// Worker runs generation attempts through a Driver with a bounded retry loop.
type Worker struct {
	driver Driver
	config WorkerConfig
	logger *slog.Logger

	// wait pauses between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewWorker creates a Worker around the given driver.
func NewWorker(driver Driver, config WorkerConfig, logger *slog.Logger) (*Worker, error) {
	if driver == nil {
		return nil, errors.New("driver cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}

	return &Worker{
		driver: driver,
		config: config,
		logger: logger,
		wait:   sleepContext,
	}, nil
}

// Generate performs up to maxRetries+1 attempts for prompt and returns the
// outcome. It never returns an error: the last attempt's error becomes the
// Failure message. A cancelled context ends the loop early.
func (w *Worker) Generate(ctx context.Context, prompt string, maxRetries int) domain.GenerationResult {
	if maxRetries < 0 {
		maxRetries = 0
	}
	maxAttempts := maxRetries + 1
	log := logger.FromContextOrDefault(ctx, w.logger)

	var lastErr error
	attempts := 0
	for attempts < maxAttempts {
		attempts++
		log.InfoContext(ctx, "starting generation attempt",
			"attempt", attempts,
			"max_attempts", maxAttempts)

		started := time.Now()
		out, err := w.driver.Imagine(ctx, prompt)
		if err == nil {
			log.InfoContext(ctx, "generation attempt succeeded",
				"attempt", attempts,
				"image_count", len(out.Images),
				"duration_ms", time.Since(started).Milliseconds())
			return domain.NewSuccess(out.Images, out.Prompt, attempts)
		}

		lastErr = err
		log.ErrorContext(ctx, "generation attempt failed",
			"attempt", attempts,
			"max_attempts", maxAttempts,
			"error", err,
			"duration_ms", time.Since(started).Milliseconds())

		if attempts >= maxAttempts {
			break
		}
		if ctx.Err() != nil {
			break
		}

		log.InfoContext(ctx, "retrying after delay",
			"attempt", attempts,
			"delay_seconds", w.config.RetryDelay.Seconds())
		if err := w.wait(ctx, w.config.RetryDelay); err != nil {
			log.WarnContext(ctx, "generation cancelled during retry delay",
				"attempt", attempts,
				"ctx_err", err)
			break
		}
	}

	retryable := IsRetryable(lastErr) && ctx.Err() == nil
	log.WarnContext(ctx, "generation gave up",
		"attempts", attempts,
		"retryable", retryable,
		"error", lastErr)
	return domain.NewFailure(lastErr.Error(), retryable, attempts)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
