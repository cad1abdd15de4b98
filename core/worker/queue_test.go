package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dem-manager/core/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func wait(t *testing.T, task *worker.Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("task %s did not finish", task.Name())
	}
}

func TestQueueRunsInOrderOneAtATime(t *testing.T) {
	q := worker.New(0, zap.NewNop())
	defer q.Shutdown(context.Background())

	var (
		mu      sync.Mutex
		order   []int
		running atomic.Int32
		overlap atomic.Bool
	)
	var tasks []*worker.Task
	for i := 0; i < 20; i++ {
		i := i
		task, err := q.Submit("t", func(ctx context.Context) error {
			if running.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	for _, task := range tasks {
		wait(t, task)
		assert.NoError(t, task.Err())
	}

	assert.False(t, overlap.Load())
	for i := range order {
		assert.Equal(t, i, order[i])
	}
}

func TestCancelPendingTask(t *testing.T) {
	q := worker.New(0, zap.NewNop())
	defer q.Shutdown(context.Background())

	release := make(chan struct{})
	blocker, err := q.Submit("blocker", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	var ran atomic.Bool
	pending, err := q.Submit("pending", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, pending.Cancel())
	wait(t, pending)
	assert.ErrorIs(t, pending.Err(), worker.ErrCancelled)

	close(release)
	wait(t, blocker)
	assert.False(t, ran.Load())
	assert.Equal(t, 0, q.Len())
}

func TestCancelRunningTask(t *testing.T) {
	q := worker.New(0, zap.NewNop())
	defer q.Shutdown(context.Background())

	started := make(chan struct{})
	task, err := q.Submit("running", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	<-started
	assert.False(t, task.Cancel(), "already running")
	wait(t, task)
	assert.ErrorIs(t, task.Err(), context.Canceled)
}

func TestRejection(t *testing.T) {
	q := worker.New(1, zap.NewNop())

	release := make(chan struct{})
	started := make(chan struct{})
	_, err := q.Submit("blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	_, err = q.Submit("queued", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	_, err = q.Submit("overflow", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, worker.ErrRejected)

	close(release)
	dropped, err := q.Shutdown(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(dropped), 1)

	_, err = q.Submit("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, worker.ErrRejected)
}

func TestPanicBecomesError(t *testing.T) {
	q := worker.New(0, zap.NewNop())
	defer q.Shutdown(context.Background())

	task, err := q.Submit("boom", func(ctx context.Context) error { panic("boom") })
	require.NoError(t, err)
	wait(t, task)
	assert.Error(t, task.Err())

	sentinel := errors.New("read failed")
	task, err = q.Submit("err", func(ctx context.Context) error { return sentinel })
	require.NoError(t, err)
	wait(t, task)
	assert.ErrorIs(t, task.Err(), sentinel)
}
