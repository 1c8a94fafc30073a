package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobsInOrderOneAtATime(t *testing.T) {
	var (
		mu      sync.Mutex
		order   []string
		running int
		maxSeen int
	)
	handle := func(_ context.Context, job Job) error {
		mu.Lock()
		running++
		maxSeen = max(maxSeen, running)
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		running--
		order = append(order, job.Path)
		mu.Unlock()
		return nil
	}
	q := NewProcessorQueue(handle, nil, WithQueueSize(1))

	ctx := context.Background()
	for _, p := range []string{"/in/a.pdf", "/in/b.pdf", "/in/a.pdf", "/in/c.pdf"} {
		require.NoError(t, q.Enqueue(ctx, Job{Path: p}))
	}
	q.Shutdown(ctx)

	assert.Equal(t, []string{"/in/a.pdf", "/in/b.pdf", "/in/c.pdf"}, order)
	assert.Equal(t, 1, maxSeen)
}

func TestQueueReportsFailures(t *testing.T) {
	boom := errors.New("boom")
	var failed []string
	q := NewProcessorQueue(
		func(_ context.Context, job Job) error {
			if job.Path == "/in/bad.pdf" {
				return boom
			}
			return nil
		},
		nil,
		WithErrorHandler(func(j Job, err error) {
			assert.ErrorIs(t, err, boom)
			failed = append(failed, j.Path)
		}),
	)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: "/in/bad.pdf"}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: "/in/good.pdf"}))
	q.Shutdown(ctx)

	assert.Equal(t, []string{"/in/bad.pdf"}, failed)
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(func(context.Context, Job) error { return nil }, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "/in/a.pdf"}), ErrClosed)
}
