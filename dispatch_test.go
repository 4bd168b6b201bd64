package restclient

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialQueuePreservesOrder(t *testing.T) {
	q := NewSerialQueue()

	var got []int
	for i := 0; i < 100; i++ {
		q.Dispatch(func() { got = append(got, i) })
	}
	q.Close()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestSerialQueueRunsOneAtATime(t *testing.T) {
	q := NewSerialQueue()

	var running, maxRunning int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go q.Dispatch(func() {
			defer wg.Done()
			n := atomic.AddInt32(&running, 1)
			if n > atomic.LoadInt32(&maxRunning) {
				atomic.StoreInt32(&maxRunning, n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
		})
	}
	wg.Wait()
	q.Close()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
}

func TestSerialQueueDispatchAfterClose(t *testing.T) {
	q := NewSerialQueue()
	q.Close()

	ran := false
	q.Dispatch(func() { ran = true })
	assert.True(t, ran)
}

func TestQueueFunc(t *testing.T) {
	var dispatched int
	q := QueueFunc(func(fn func()) {
		dispatched++
		fn()
	})

	ran := false
	q.Dispatch(func() { ran = true })
	assert.True(t, ran)
	assert.Equal(t, 1, dispatched)
}

func TestTaskDeliversOnce(t *testing.T) {
	task := newTask("t1", func() {})

	var calls int
	task.deliver(InlineQueue{}, func() { calls++ })
	task.deliver(InlineQueue{}, func() { calls++ })

	assert.Equal(t, 1, calls)
	assert.False(t, task.Cancelled())
	select {
	case <-task.Done():
	default:
		t.Fatal("expected Done to be closed after delivery")
	}
}

func TestTaskCancelSuppressesDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := newTask("t2", cancel)

	var pending []func()
	queue := QueueFunc(func(fn func()) { pending = append(pending, fn) })

	delivered := false
	task.deliver(queue, func() { delivered = true })
	task.Cancel()
	for _, fn := range pending {
		fn()
	}

	assert.False(t, delivered)
	assert.True(t, task.Cancelled())
	assert.Error(t, ctx.Err())
	require.NoError(t, task.Wait(context.Background()))

	task.Cancel()
}

func TestTaskWaitHonoursContext(t *testing.T) {
	task := newTask("t3", func() {})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, "t3", task.ID())
}
