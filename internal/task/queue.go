package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/phrazzld/imagine-api/internal/store"
)

// recoveredJobMessage is stored on history records a previous process left unfinished.
const recoveredJobMessage = "interrupted by service restart"

// defaultHistoryTimeout bounds every history write made by the queue.
const defaultHistoryTimeout = 5 * time.Second

// QueueConfig holds configuration for the job queue
type QueueConfig struct {
	// MaxRetries is passed to the worker for every job.
	// Negative values are treated as zero.
	MaxRetries int
}

// Queue is a strictly serial job runner. Jobs run one at a time in
// submission order; a job that fails still completes and never blocks the
// jobs behind it.
type Queue struct {
	worker Worker
	store  store.JobStore
	config QueueConfig
	logger *slog.Logger
	now    func() time.Time

	// createdAt separates history left by earlier processes from jobs
	// submitted to this queue.
	createdAt      time.Time
	historyTimeout time.Duration

	mu        sync.Mutex
	pending   []*job
	busy      bool
	started   bool
	stopped   bool
	seq       uint64
	processed uint64
	failed    uint64
	startedAt time.Time

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewQueue creates a new Queue. Jobs submitted before Start wait until it is called.
func NewQueue(worker Worker, jobStore store.JobStore, config QueueConfig, logger *slog.Logger) (*Queue, error) {
	if worker == nil {
		return nil, ErrNilWorker
	}
	if jobStore == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxRetries < 0 {
		logger.Warn("negative max retries specified, using zero",
			"specified", config.MaxRetries)
		config.MaxRetries = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		worker:         worker,
		store:          jobStore,
		config:         config,
		logger:         logger.With("component", "queue"),
		now:            time.Now,
		createdAt:      time.Now().Truncate(time.Microsecond),
		historyTimeout: defaultHistoryTimeout,
		ctx:            ctx,
		cancelFunc:     cancel,
	}, nil
}

// Submit appends a job for prompt to the tail of the queue and returns its
// completion handle. It never blocks on generation and never rejects for
// queue length. After Stop the handle is resolved at once with a Failure.
func (q *Queue) Submit(ctx context.Context, prompt string) *Future {
	j := &job{
		id:          uuid.New(),
		prompt:      prompt,
		submittedAt: q.now(),
	}
	j.future = newFuture(j.id)
	log := logger.FromContextOrDefault(ctx, q.logger).With("job_id", j.id)

	// The record must exist before the job can be dispatched.
	q.recordCreated(ctx, log, j)

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		log.WarnContext(ctx, "job submitted after queue stopped")
		q.finish(ctx, log, j, domain.NewFailure(ErrQueueStopped.Error(), true, 0))
		return j.future
	}
	q.seq++
	j.seq = q.seq
	q.pending = append(q.pending, j)
	j.future.Position = len(q.pending)
	queueLen := len(q.pending)
	busy := q.busy
	q.mu.Unlock()

	log.InfoContext(ctx, "job enqueued",
		"seq", j.seq,
		"position", j.future.Position,
		"queue_length", queueLen,
		"busy", busy)

	q.advance()
	return j.future
}

// Status returns a snapshot of the queue state.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	status := Status{
		Running:     q.started && !q.stopped,
		Busy:        q.busy,
		QueueLength: len(q.pending),
		Processed:   q.processed,
		Failed:      q.failed,
	}
	if q.started {
		status.Uptime = q.now().Sub(q.startedAt)
	}
	return status
}

// Start closes out history records left unfinished by a previous process
// and begins dispatching jobs.
func (q *Queue) Start() error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrQueueStopped
	}
	if q.started {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	if err := q.Recover(); err != nil {
		return fmt.Errorf("failed to recover job history: %w", err)
	}

	q.mu.Lock()
	q.started = true
	q.startedAt = q.now()
	queueLen := len(q.pending)
	q.mu.Unlock()

	q.logger.Info("queue started", "queue_length", queueLen)
	q.advance()
	return nil
}

// Recover marks jobs that a previous process left pending or processing as
// failed. Queued work lives only in memory, so those jobs can never finish.
// Jobs submitted to this queue are never touched, whether or not it has started.
func (q *Queue) Recover() error {
	ctx, cancel := context.WithTimeout(logger.WithLogger(context.Background(), q.logger), q.historyTimeout)
	defer cancel()

	n, err := q.store.FailUnfinished(ctx, recoveredJobMessage, q.createdAt, q.now())
	if err != nil {
		return fmt.Errorf("failed to close out unfinished jobs: %w", err)
	}
	if n > 0 {
		q.logger.Info("closed out unfinished jobs from previous run", "count", n)
	}
	return nil
}

// Stop cancels the in-flight job, waits for it to finish and resolves every
// waiting job with a retryable "queue stopped" Failure. It is safe to call
// more than once.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	drained := q.pending
	q.pending = nil
	q.mu.Unlock()

	q.cancelFunc()

	ctx := logger.WithLogger(context.Background(), q.logger)
	for _, j := range drained {
		log := q.logger.With("job_id", j.id)
		q.finish(ctx, log, j, domain.NewFailure(ErrQueueStopped.Error(), true, 0))
	}

	q.wg.Wait()
	q.logger.Info("queue stopped", "drained", len(drained))
}

// advance dispatches the head job when the queue is started and idle.
// It is a no-op while a job is in flight, so calling it repeatedly never
// starts the same job twice.
func (q *Queue) advance() {
	q.mu.Lock()
	if q.busy || !q.started || q.stopped || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	j := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.busy = true
	remaining := len(q.pending)
	q.wg.Add(1)
	q.mu.Unlock()

	go q.run(j, remaining)
}

// run executes one job, resolves its handle and hands over to the next job.
func (q *Queue) run(j *job, remaining int) {
	defer q.wg.Done()

	ctx, cancel := context.WithCancel(q.ctx)
	defer cancel()

	log := q.logger.With(
		"job_id", j.id,
		"seq", j.seq,
	)
	ctx = logger.WithLogger(ctx, log)

	log.InfoContext(ctx, "processing job",
		"queue_length", remaining,
		"waited_ms", q.now().Sub(j.submittedAt).Milliseconds())
	q.recordProcessing(ctx, log, j)

	result := q.generate(ctx, log, j)
	q.finish(ctx, log, j, result)

	q.mu.Lock()
	q.busy = false
	q.mu.Unlock()

	q.advance()
}

// generate calls the worker, turning a panic into a Failure so the queue keeps going.
func (q *Queue) generate(ctx context.Context, log *slog.Logger, j *job) (result domain.GenerationResult) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "worker panicked", "panic", r)
			result = domain.NewFailure(fmt.Sprintf("worker panic: %v", r), false, 0)
		}
	}()
	return q.worker.Generate(ctx, j.prompt, q.config.MaxRetries)
}

// finish records the outcome, counts it and resolves the job's handle.
func (q *Queue) finish(ctx context.Context, log *slog.Logger, j *job, result domain.GenerationResult) {
	q.recordCompleted(ctx, log, j, result)

	q.mu.Lock()
	if result.OK() {
		q.processed++
	} else {
		q.failed++
	}
	q.mu.Unlock()

	if result.OK() {
		log.InfoContext(ctx, "job completed",
			"attempts", result.Attempts,
			"image_count", len(result.Success.Images))
	} else {
		log.WarnContext(ctx, "job failed",
			"attempts", result.Attempts,
			"error", result.Failure.Message,
			"retryable", result.Failure.Retryable)
	}

	j.future.resolve(result)
}

// History writes never influence queue progress; failures are only logged.
// They use a context detached from cancellation so Stop still records
// outcomes, bounded by historyTimeout so a stalled store cannot hold up
// Submit or the dispatcher.

func (q *Queue) historyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), q.historyTimeout)
}

func (q *Queue) recordCreated(ctx context.Context, log *slog.Logger, j *job) {
	rec, err := domain.NewJobRecord(j.id, j.prompt, j.submittedAt)
	if err != nil {
		log.ErrorContext(ctx, "invalid job record", "error", err)
		return
	}
	writeCtx, cancel := q.historyContext(ctx)
	defer cancel()
	if err := q.store.Create(writeCtx, rec); err != nil {
		log.ErrorContext(ctx, "failed to save job record", "error", err)
	}
}

func (q *Queue) recordProcessing(ctx context.Context, log *slog.Logger, j *job) {
	writeCtx, cancel := q.historyContext(ctx)
	defer cancel()
	if err := q.store.MarkProcessing(writeCtx, j.id, q.now()); err != nil {
		log.ErrorContext(ctx, "failed to mark job as processing", "error", err)
	}
}

func (q *Queue) recordCompleted(ctx context.Context, log *slog.Logger, j *job, result domain.GenerationResult) {
	writeCtx, cancel := q.historyContext(ctx)
	defer cancel()
	if err := q.store.Complete(writeCtx, j.id, result, q.now()); err != nil {
		log.ErrorContext(ctx, "failed to store job outcome", "error", err)
	}
}
