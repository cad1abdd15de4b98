package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrRejected is returned when a task cannot be accepted.
var ErrRejected = errors.New("worker: task rejected")

// ErrCancelled is the error of a task cancelled before it started.
var ErrCancelled = errors.New("worker: task cancelled")

// Func is the body of a task. It should return early once ctx is cancelled.
type Func func(ctx context.Context) error

// Task is the handle of a submitted task.
type Task struct {
	name   string
	fn     Func
	queue  *Queue
	ctx    context.Context
	cancel context.CancelFunc

	done chan struct{}
	once sync.Once
	err  error
}

// Name returns the name given at submission.
func (t *Task) Name() string { return t.name }

// Done is closed once the task has finished or was cancelled before starting.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task result. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Cancel removes the task from the queue if it has not started yet and reports whether it
// did. A running task has its context cancelled instead.
func (t *Task) Cancel() bool {
	if t.queue.remove(t) {
		t.cancel()
		t.finish(ErrCancelled)
		return true
	}
	t.cancel()
	return false
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Queue executes tasks sequentially on one goroutine.
type Queue struct {
	mu       sync.Mutex
	pending  []*Task
	closed   bool
	capacity int
	current  *Task

	wake    chan struct{}
	stopped chan struct{}
	logger  *zap.Logger
}

// New starts a queue that holds at most capacity pending tasks (unbounded when capacity <= 0).
func New(capacity int, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		capacity: capacity,
		wake:     make(chan struct{}, 1),
		stopped:  make(chan struct{}),
		logger:   logger,
	}
	go q.run()
	return q
}

// Submit appends a task to the queue.
func (q *Queue) Submit(name string, fn Func) (*Task, error) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		name:   name,
		fn:     fn,
		queue:  q,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("%w: queue shut down", ErrRejected)
	}
	if q.capacity > 0 && len(q.pending) >= q.capacity {
		q.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("%w: backlog of %d tasks", ErrRejected, q.capacity)
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return t, nil
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) remove(t *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, p := range q.pending {
		if p == t {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) next() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		q.current = nil
		return nil, q.closed
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	q.current = t
	return t, false
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		t, closed := q.next()
		if t == nil {
			if closed {
				return
			}
			<-q.wake
			continue
		}
		t.finish(q.execute(t))
		t.cancel()
	}
}

func (q *Queue) execute(t *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Task panicked", zap.String("task", t.name), zap.Any("panic", r))
			err = fmt.Errorf("worker: task %s panicked: %v", t.name, r)
		}
	}()
	if t.ctx.Err() != nil {
		return ErrCancelled
	}
	return t.fn(t.ctx)
}

// Shutdown stops accepting tasks, cancels every pending task and waits for the running
// task to finish or ctx to expire. Cancelled tasks are returned so callers can clean up.
func (q *Queue) Shutdown(ctx context.Context) ([]*Task, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, nil
	}
	q.closed = true
	dropped := q.pending
	q.pending = nil
	if q.current != nil {
		q.current.cancel()
	}
	q.mu.Unlock()

	for _, t := range dropped {
		t.cancel()
		t.finish(ErrCancelled)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case <-q.stopped:
		return dropped, nil
	case <-ctx.Done():
		return dropped, ctx.Err()
	}
}
