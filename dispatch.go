package restclient

import (
	"context"
	"sync"
	"sync/atomic"
)

// CompletionQueue is where completion callbacks and upload progress run.
type CompletionQueue interface {
	Dispatch(fn func())
}

// QueueFunc adapts a function to CompletionQueue, e.g. one that posts to an
// event loop.
type QueueFunc func(fn func())

func (f QueueFunc) Dispatch(fn func()) { f(fn) }

// InlineQueue runs callbacks on the goroutine that completes the request.
type InlineQueue struct{}

func (InlineQueue) Dispatch(fn func()) { fn() }

// SerialQueue runs callbacks one at a time, in submission order, on a single
// goroutine. Dispatch never blocks.
type SerialQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	done    chan struct{}
}

// NewSerialQueue starts a serial queue. Call Close to stop it.
func NewSerialQueue() *SerialQueue {
	q := &SerialQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Dispatch enqueues fn. Callbacks dispatched after Close run on the caller's
// goroutine.
func (q *SerialQueue) Dispatch(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		fn()
		return
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
	}
}

// Close runs all queued callbacks and stops the queue goroutine. It must not
// be called from a callback running on q.
func (q *SerialQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
	<-q.done
}

const (
	taskPending int32 = iota
	taskDelivered
	taskCancelled
)

// Task is a handle to a submitted request.
type Task struct {
	id     string
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

func newTask(id string, cancel context.CancelFunc) *Task {
	return &Task{id: id, cancel: cancel, done: make(chan struct{})}
}

// ID returns the request ID used in logs and errors.
func (t *Task) ID() string { return t.id }

// Cancel aborts the request. If the result has not been delivered yet, the
// completion is suppressed and no cache entry is written.
func (t *Task) Cancel() {
	if t.state.CompareAndSwap(taskPending, taskCancelled) {
		close(t.done)
	}
	t.cancel()
}

// Cancelled reports whether Cancel won over delivery.
func (t *Task) Cancelled() bool {
	return t.state.Load() == taskCancelled
}

// Done is closed once the completion has run or the task was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until Done is closed or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) pending() bool {
	return t.state.Load() == taskPending
}

// deliver runs fn on q unless the task is cancelled first. fn runs at most
// once across all calls.
func (t *Task) deliver(q CompletionQueue, fn func()) {
	q.Dispatch(func() {
		if !t.state.CompareAndSwap(taskPending, taskDelivered) {
			return
		}
		defer close(t.done)
		defer t.cancel()
		fn()
	})
}
