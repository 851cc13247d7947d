package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one queued import: a ledger entry plus the source file it owns.
type Job struct {
	JobID       uuid.UUID
	Path        string
	SubmittedAt time.Time
}

// ErrQueueClosed is returned by Submit after Shutdown has begun.
var ErrQueueClosed = errors.New("import queue is shut down")

// ImportQueue runs imports on a fixed pool of workers behind a bounded
// channel, detached from the submitting request. Every queued or running job
// carries its own cancellation token.
type ImportQueue struct {
	imp     *Importer
	logger  *slog.Logger
	workers int

	ch      chan Job
	wg      sync.WaitGroup
	senders sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
	active map[uuid.UUID]*jobHandle
}

type jobHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*ImportQueue)

func WithWorkers(n int) Option {
	return func(q *ImportQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ImportQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewImportQueue(imp *Importer, logger *slog.Logger, opts ...Option) *ImportQueue {
	q := &ImportQueue{
		imp:     imp,
		logger:  logger,
		workers: 4,
		ch:      make(chan Job, 256),
		active:  map[uuid.UUID]*jobHandle{},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ImportQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("import worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx := q.handleCtx(job.JobID)
					err := q.imp.Run(ctx, job.JobID, job.Path)
					q.release(job.JobID)

					if err != nil {
						q.logger.Error("import failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
					} else {
						q.logger.Info("import finished", "worker_id", workerID, "job_id", job.JobID)
					}
				}

				q.logger.Info("import worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Submit enqueues an import. It never blocks the caller for long: a full
// queue is logged as backpressure but the job is still delivered, since its
// ledger entry already exists.
func (q *ImportQueue) Submit(_ context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.JobID)
		return ErrQueueClosed
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.active[job.JobID] = &jobHandle{ctx: ctx, cancel: cancel}
	// Registered as a sender under the same lock as the closed check, so
	// Shutdown cannot close the channel while this send is in flight.
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		q.logger.Info("queued import", "job_id", job.JobID, "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.JobID)
		q.ch <- job
	}
	return nil
}

// Cancel signals a queued or running import to stop. Returns false when the
// job is not known to the queue (already finished, or never submitted).
func (q *ImportQueue) Cancel(jobID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.active[jobID]
	if ok {
		h.cancel()
	}
	return ok
}

func (q *ImportQueue) handleCtx(jobID uuid.UUID) context.Context {
	q.mu.Lock()
	defer q.mu.Unlock()
	if h, ok := q.active[jobID]; ok {
		return h.ctx
	}
	return context.Background()
}

func (q *ImportQueue) release(jobID uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if h, ok := q.active[jobID]; ok {
		h.cancel()
		delete(q.active, jobID)
	}
}

// Shutdown stops accepting work and waits for the queue to drain, or for
// ctx to expire.
func (q *ImportQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// In-flight Submits must clear the channel before it can close;
		// workers keep draining until then.
		q.senders.Wait()
		close(q.ch)
		q.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
