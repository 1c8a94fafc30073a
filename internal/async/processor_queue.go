package async

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("queue is shutting down")

// ProcessorQueue runs jobs on a single worker in arrival order. A path is accepted once
// per queue lifetime, so a file that keeps changing is not filed twice.
type ProcessorQueue struct {
	handle  Handler
	onError func(Job, error)
	logger  *slog.Logger
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
	seen   map[string]struct{}
}

type Option func(*ProcessorQueue)

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithErrorHandler is called on the worker goroutine for every failed job.
func WithErrorHandler(fn func(Job, error)) Option {
	return func(q *ProcessorQueue) {
		q.onError = fn
	}
}

func NewProcessorQueue(handle Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handle:  handle,
		logger:  logger,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 256),
		seen:    make(map[string]struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Info("queue.worker.started")

			for job := range q.ch {
				ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
				start := time.Now()
				err := q.handle(ctx, job)
				cancel()

				name := filepath.Base(job.Path)
				if err != nil {
					q.logger.Error("queue.job.failed", "file", name, "error", err)
					if q.onError != nil {
						q.onError(job, err)
					}
					continue
				}
				q.logger.Info("queue.job.ok",
					"file", name,
					"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
			}

			q.logger.Info("queue.worker.stopped")
		}()
	})
}

// Enqueue blocks while the queue is full. A path already accepted is ignored.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", job.Path)
		return ErrClosed
	}
	if _, dup := q.seen[job.Path]; dup {
		q.logger.Debug("queue.enqueue.seen", "path", job.Path)
		return nil
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.enqueue.backpressure", "path", job.Path)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.seen[job.Path] = struct{}{}
	q.logger.Info("queue.enqueue.ok", "path", job.Path, "depth", len(q.ch))
	return nil
}

// Shutdown stops accepting jobs and waits for the queued ones to finish or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
