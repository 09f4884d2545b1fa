package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDriver returns the scripted errors in order, then succeeds.
type scriptedDriver struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	prompts  []string
	imagesFn func(prompt string) []string
}

func (d *scriptedDriver) Imagine(ctx context.Context, prompt string) (Output, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	d.prompts = append(d.prompts, prompt)
	if d.calls <= len(d.errs) {
		return Output{}, d.errs[d.calls-1]
	}
	images := []string{"https://bucket.r2.cloudflarestorage.com/" + prompt + ".png"}
	if d.imagesFn != nil {
		images = d.imagesFn(prompt)
	}
	return Output{Images: images, Prompt: prompt + " --v 7"}, nil
}

func (d *scriptedDriver) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestWorker(t *testing.T, driver Driver) (*Worker, *[]time.Duration) {
	t.Helper()

	w, err := NewWorker(driver, WorkerConfig{RetryDelay: 30 * time.Second}, discardLogger())
	require.NoError(t, err)

	var waits []time.Duration
	w.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return w, &waits
}

func alwaysFailing(n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = fmt.Errorf("%w: attempt %d", ErrSelectorTimeout, i+1)
	}
	return errs
}

func TestNewWorkerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewWorker(nil, WorkerConfig{}, discardLogger())
	assert.Error(t, err)

	_, err = NewWorker(&scriptedDriver{}, WorkerConfig{}, nil)
	assert.Error(t, err)

	w, err := NewWorker(&scriptedDriver{}, WorkerConfig{RetryDelay: -time.Second}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), w.config.RetryDelay)
}

func TestWorker_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	driver := &scriptedDriver{}
	w, waits := newTestWorker(t, driver)

	result := w.Generate(context.Background(), "cat", 2)

	require.True(t, result.OK())
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "cat --v 7", result.Success.Prompt)
	assert.Len(t, result.Success.Images, 1)
	assert.Equal(t, 1, driver.Calls())
	assert.Empty(t, *waits, "No delay expected after a first-attempt success")
}

func TestWorker_FailsTwiceThenSucceeds(t *testing.T) {
	t.Parallel()

	driver := &scriptedDriver{errs: alwaysFailing(2)}
	w, waits := newTestWorker(t, driver)

	result := w.Generate(context.Background(), "x", 2)

	require.True(t, result.OK(), "Expected success on the third attempt")
	assert.Equal(t, 3, driver.Calls(), "Exactly 3 attempts should be recorded")
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, *waits)
	assert.Equal(t, []string{"x", "x", "x"}, driver.prompts)
}

func TestWorker_AlwaysFailingPerformsRPlusOneAttempts(t *testing.T) {
	t.Parallel()

	for _, retries := range []int{0, 1, 2, 5} {
		retries := retries
		t.Run(fmt.Sprintf("R=%d", retries), func(t *testing.T) {
			t.Parallel()

			driver := &scriptedDriver{errs: alwaysFailing(retries + 10)}
			w, waits := newTestWorker(t, driver)

			result := w.Generate(context.Background(), "y", retries)

			require.False(t, result.OK())
			assert.Equal(t, retries+1, driver.Calls())
			assert.Equal(t, retries+1, result.Attempts)
			assert.Len(t, *waits, retries, "One delay between each pair of attempts")
			assert.Equal(t,
				fmt.Sprintf("%s: attempt %d", ErrSelectorTimeout, retries+1),
				result.Failure.Message,
				"Failure should carry the last attempt's message")
			assert.True(t, result.Failure.Retryable)
		})
	}
}

func TestWorker_NegativeRetriesMeansSingleAttempt(t *testing.T) {
	t.Parallel()

	driver := &scriptedDriver{errs: alwaysFailing(3)}
	w, _ := newTestWorker(t, driver)

	result := w.Generate(context.Background(), "y", -4)

	assert.False(t, result.OK())
	assert.Equal(t, 1, driver.Calls())
}

func TestWorker_CancelledDuringDelay(t *testing.T) {
	t.Parallel()

	driver := &scriptedDriver{errs: alwaysFailing(5)}
	w, err := NewWorker(driver, WorkerConfig{RetryDelay: time.Hour}, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		result := w.Generate(ctx, "z", 3)
		assert.False(t, result.OK())
		assert.False(t, result.Failure.Retryable, "A cancelled job should not be reported as retryable")
		assert.Equal(t, 1, result.Attempts)
	}()

	// Give the first attempt time to fail and enter the delay.
	require.Eventually(t, func() bool { return driver.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Generate did not return after cancellation")
	}
	assert.Equal(t, 1, driver.Calls())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(fmt.Errorf("%w: bad selector", ErrInvalidConfig)))
	assert.True(t, IsRetryable(fmt.Errorf("%w: boom", ErrNavigationTimeout)))
	assert.True(t, IsRetryable(ErrExtractionFailure))
	assert.True(t, IsRetryable(errors.New("unclassified")))
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
