// Package jobs provides a small in-process background job queue with a
// fixed worker pool. Jobs are fire-and-forget relative to the request that
// enqueued them.
package jobs

import (
	"context"
	"log/slog"
	"sync"
)

// Job is a unit of background work. Jobs with a non-empty Key are
// deduplicated: while one is queued or running, enqueueing another with
// the same key is a no-op. This keeps overlapping syncs of the same
// repository from racing on its working directory.
type Job struct {
	Key string
	Run func(ctx context.Context) error
}

// Queue dispatches jobs to a fixed pool of workers.
type Queue struct {
	jobs    chan Job
	workers int
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

// NewQueue creates a queue with the given worker count and buffer size.
func NewQueue(workers, buffer int, logger *slog.Logger) *Queue {
	return &Queue{
		jobs:     make(chan Job, buffer),
		workers:  workers,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Start launches the worker pool. Workers drain until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Wait blocks until all workers have exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Enqueue submits a job. It reports false when the job was dropped,
// either because an identical key is already queued or running, or
// because the queue is full.
func (q *Queue) Enqueue(job Job) bool {
	if job.Key != "" {
		q.mu.Lock()
		if q.inflight[job.Key] {
			q.mu.Unlock()
			q.logger.Debug("job already in flight, dropping", "key", job.Key)
			return false
		}
		q.inflight[job.Key] = true
		q.mu.Unlock()
	}

	select {
	case q.jobs <- job:
		return true
	default:
		q.release(job.Key)
		q.logger.Warn("job queue full, dropping job", "key", job.Key)
		return false
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			if err := job.Run(ctx); err != nil {
				q.logger.Error("background job failed", "key", job.Key, "error", err)
			}
			q.release(job.Key)
		}
	}
}

func (q *Queue) release(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.inflight, key)
	q.mu.Unlock()
}
