package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-metrics/internal/jobs"
	"github.com/dvloznov/finance-metrics/internal/logger"
)

// QueueOptions configures a Queue.
type QueueOptions struct {
	// BufferSize is how many jobs can be queued before PublishReload blocks.
	BufferSize int

	// Workers is the number of concurrent workers. Reloads replace the
	// whole snapshot, so the default is a single worker.
	Workers int

	// MaxRetries is applied to published jobs that do not set their own.
	MaxRetries int

	// Backoff returns the delay before retry attempt n (starting at 1).
	// Defaults to n seconds.
	Backoff func(attempt int) time.Duration
}

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// This implementation is suitable for single-instance deployments and testing.
type Queue struct {
	jobChan   chan *jobs.ReloadDatasetJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	sending   sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	opts      QueueOptions
	closed    bool
}

// NewQueue creates a new in-memory job queue. store may be nil.
func NewQueue(opts QueueOptions, store jobs.JobStore) *Queue {
	if opts.BufferSize < 0 {
		opts.BufferSize = 0
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff == nil {
		opts.Backoff = func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		}
	}
	return &Queue{
		jobChan:   make(chan *jobs.ReloadDatasetJob, opts.BufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		opts:      opts,
	}
}

// PublishReload implements the Publisher interface.
// It enqueues a dataset reload job for asynchronous processing.
func (q *Queue) PublishReload(ctx context.Context, job *jobs.ReloadDatasetJob) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.sending.Add(1)
	q.mu.RUnlock()
	defer q.sending.Done()

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.opts.MaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
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
// It starts opts.Workers workers that process jobs with handler.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.mu.RUnlock()

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
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

// processJob executes a single job attempt and schedules a retry on failure.
func (q *Queue) processJob(ctx context.Context, job *jobs.ReloadDatasetJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("source", job.Source).
		Int("attempt", job.RetryCount+1).
		Logger()

	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()

		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying
			backoff := q.opts.Backoff(job.RetryCount)
			log.Warn().Err(err).Dur("backoff", backoff).Msg("Reload failed, retrying")

			q.save(ctx, job)
			time.AfterFunc(backoff, func() {
				job.Status = jobs.JobStatusPending
				job.StartedAt = nil
				job.CompletedAt = nil
				if err := q.PublishReload(ctx, job); err != nil {
					job.Status = jobs.JobStatusFailed
					job.Error = fmt.Sprintf("retry not scheduled: %v", err)
					q.save(context.Background(), job)
				}
			})
			return
		}

		job.Status = jobs.JobStatusFailed
		log.Error().Err(err).Msg("Reload failed")
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().
			Str("snapshot_version", job.SnapshotVersion).
			Int("rows", job.Rows).
			Msg("Reload completed")
	}

	q.save(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.ReloadDatasetJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to save job")
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete. Jobs
// still buffered once the workers exit are marked failed.
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
		q.sending.Wait()
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.drain(ctx)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain fails every job left in the buffer. Only called once no publisher
// or worker can touch the channel.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case job := <-q.jobChan:
			if job == nil {
				continue
			}
			completedAt := time.Now()
			job.CompletedAt = &completedAt
			job.Status = jobs.JobStatusFailed
			job.Error = jobs.ErrQueueClosed.Error()
			q.save(ctx, job)
		default:
			return
		}
	}
}

// Close implements the Publisher interface.
// It closes the queue and releases resources.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
