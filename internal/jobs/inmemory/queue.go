package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/clock"
	"github.com/dvloznov/finance-advisor/internal/idgen"
	"github.com/dvloznov/finance-advisor/internal/jobs"
)

// Defaults for NewQueue.
const (
	DefaultWorkers = 5
	DefaultBackoff = time.Second
)

// Queue is an in-memory job publisher and consumer backed by a channel.
// It suits single-instance deployments and tests.
type Queue struct {
	jobChan   chan *jobs.AnalyzeUserJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool

	workers int
	backoff time.Duration
	clock   clock.Clock
	ids     idgen.Generator
	log     zerolog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithBackoff sets the retry delay unit. The nth retry waits n*d.
func WithBackoff(d time.Duration) Option {
	return func(q *Queue) { q.backoff = d }
}

// WithClock sets the time source for job timestamps.
func WithClock(c clock.Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithIDGenerator sets the job ID source.
func WithIDGenerator(ids idgen.Generator) Option {
	return func(q *Queue) { q.ids = ids }
}

// WithLogger sets the queue logger.
func WithLogger(log zerolog.Logger) Option {
	return func(q *Queue) { q.log = log }
}

// NewQueue creates a new in-memory job queue. bufferSize is how many jobs
// can wait before PublishAnalyzeUser blocks. store may be nil.
func NewQueue(bufferSize int, store jobs.JobStore, opts ...Option) *Queue {
	q := &Queue{
		jobChan:   make(chan *jobs.AnalyzeUserJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   DefaultWorkers,
		backoff:   DefaultBackoff,
		clock:     clock.System{},
		ids:       idgen.UUID{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PublishAnalyzeUser implements the Publisher interface.
func (q *Queue) PublishAnalyzeUser(ctx context.Context, job *jobs.AnalyzeUserJob) error {
	if job.JobID == "" {
		job.JobID = q.ids.NewID()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = q.clock.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = jobs.DefaultMaxRetries
	}

	queued := *job
	return q.enqueue(ctx, &queued)
}

func (q *Queue) enqueue(ctx context.Context, job *jobs.AnalyzeUserJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return jobs.ErrQueueClosed
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishAnalyzeUser: save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start implements the Consumer interface.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return jobs.ErrQueueClosed
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs the handler once and schedules a retry on failure.
func (q *Queue) processJob(ctx context.Context, job *jobs.AnalyzeUserJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	started := q.clock.Now()
	job.StartedAt = &started
	q.save(ctx, job)

	err := handler(ctx, job)

	completed := q.clock.Now()
	job.CompletedAt = &completed

	if err == nil {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		q.save(ctx, job)
		q.log.Info().Str("job_id", job.JobID).Str("user_id", job.UserID).Msg("job completed")
		return
	}

	job.Error = err.Error()
	if job.RetryCount >= job.MaxRetries {
		job.Status = jobs.JobStatusFailed
		q.save(ctx, job)
		q.log.Error().Err(err).Str("job_id", job.JobID).Int("retries", job.RetryCount).Msg("job failed")
		return
	}

	job.RetryCount++
	job.Status = jobs.JobStatusRetrying
	q.save(ctx, job)
	q.log.Warn().Err(err).Str("job_id", job.JobID).Int("retry", job.RetryCount).Msg("job failed, retrying")

	retry := *job
	retry.Status = jobs.JobStatusPending
	retry.StartedAt = nil
	retry.CompletedAt = nil
	time.AfterFunc(time.Duration(job.RetryCount)*q.backoff, func() {
		if err := q.enqueue(ctx, &retry); err != nil {
			q.log.Error().Err(err).Str("job_id", retry.JobID).Msg("failed to requeue job")
		}
	})
}

func (q *Queue) save(ctx context.Context, job *jobs.AnalyzeUserJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.log.Error().Err(err).Str("job_id", job.JobID).Msg("failed to save job state")
	}
}

// Stop implements the Consumer interface.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
