package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesInOrder(t *testing.T) {
	var mu sync.Mutex
	seen := make([]string, 0, 3)
	done := make(chan struct{}, 3)

	queue := NewQueue("test", func(_ context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{BufferSize: 4})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, queue.Enqueue(Job{ID: id, Type: "noop"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestQueueHandlerErrorDoesNotStopWorker(t *testing.T) {
	done := make(chan string, 2)
	queue := NewQueue("test", func(_ context.Context, job Job) error {
		if job.ID == "bad" {
			done <- "bad"
			return fmt.Errorf("boom")
		}
		done <- job.ID
		return nil
	}, QueueConfig{BufferSize: 4})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "bad"}))
	require.NoError(t, queue.Enqueue(Job{ID: "good"}))

	first := <-done
	second := <-done
	assert.Equal(t, "bad", first)
	assert.Equal(t, "good", second, "worker survives a failing handler")
}

func TestQueueEnqueueRequiresStart(t *testing.T) {
	queue := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, queue.Enqueue(Job{ID: "a"}))
}

func TestQueueEnqueueFullBuffer(t *testing.T) {
	block := make(chan struct{})
	queue := NewQueue("test", func(_ context.Context, _ Job) error {
		<-block
		return nil
	}, QueueConfig{BufferSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	// First job occupies the worker, second fills the buffer.
	require.NoError(t, queue.Enqueue(Job{ID: "a"}))
	require.Eventually(t, func() bool {
		return queue.Enqueue(Job{ID: "b"}) == nil
	}, time.Second, 5*time.Millisecond)

	err := queue.Enqueue(Job{ID: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")

	close(block)
	queue.Stop()
}

func TestQueueStopWaitsForWorker(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})
	queue := NewQueue("test", func(_ context.Context, _ Job) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		close(finished)
		return nil
	}, QueueConfig{BufferSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	require.NoError(t, queue.Enqueue(Job{ID: "a"}))
	<-started

	queue.Stop()
	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before in-flight job finished")
	}
}
