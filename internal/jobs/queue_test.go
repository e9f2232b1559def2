package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestQueue(workers, buffer int) *Queue {
	return NewQueue(workers, buffer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestQueueRunsJobs(t *testing.T) {
	queue := newTestQueue(2, 8)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		ok := queue.Enqueue(Job{Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}})
		assert.True(t, ok)
	}

	assert.Eventually(t, func() bool { return ran.Load() == 5 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	queue.Wait()
}

func TestQueueDeduplicatesByKey(t *testing.T) {
	queue := newTestQueue(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	defer func() {
		cancel()
		queue.Wait()
	}()

	release := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, queue.Enqueue(Job{Key: "sync:1", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	// The key is held while its job runs.
	assert.False(t, queue.Enqueue(Job{Key: "sync:1", Run: func(context.Context) error { return nil }}))
	assert.True(t, queue.Enqueue(Job{Key: "sync:2", Run: func(context.Context) error { return nil }}))

	close(release)

	// Once finished, the key is free again.
	assert.Eventually(t, func() bool {
		return queue.Enqueue(Job{Key: "sync:1", Run: func(context.Context) error { return nil }})
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQueueDropsWhenFull(t *testing.T) {
	queue := newTestQueue(1, 1)

	// Workers never start, so the buffer fills after one job.
	assert.True(t, queue.Enqueue(Job{Key: "a", Run: func(context.Context) error { return nil }}))
	assert.False(t, queue.Enqueue(Job{Key: "b", Run: func(context.Context) error { return nil }}))

	// A dropped job releases its key for a later attempt.
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		queue.Wait()
	})
	queue.Start(ctx)
	assert.Eventually(t, func() bool {
		return queue.Enqueue(Job{Key: "b", Run: func(context.Context) error { return nil }})
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQueueSurvivesFailingJobs(t *testing.T) {
	queue := newTestQueue(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	defer func() {
		cancel()
		queue.Wait()
	}()

	var ran atomic.Int32
	queue.Enqueue(Job{Run: func(context.Context) error {
		ran.Add(1)
		return context.DeadlineExceeded
	}})
	queue.Enqueue(Job{Run: func(context.Context) error {
		ran.Add(1)
		return nil
	}})

	assert.Eventually(t, func() bool { return ran.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}
