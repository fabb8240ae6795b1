package slots

import (
	"context"
	"sync"
)

// Executor runs submitted tasks on a single background worker, in submission
// order. The worker starts lazily on the first submission and exits when the
// queue drains; a later submission starts a fresh one. One executor per owner
// instance keeps background calls on that instance strictly serialized.
type Executor struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	pending int
}

// Submit enqueues task. It never blocks the caller.
func (e *Executor) Submit(task func()) {
	if task == nil {
		return
	}
	e.mu.Lock()
	e.pending++
	e.queue = append(e.queue, task)
	if !e.running {
		e.running = true
		go e.run()
	}
	e.mu.Unlock()
}

func (e *Executor) run() {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		task()

		e.mu.Lock()
		e.pending--
		e.mu.Unlock()
	}
}

// Pending reports submitted tasks that have not finished yet, including the
// one currently running.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Future is the pending result of an asynchronous method call.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

func (f *Future[R]) complete(value R, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the result is available without blocking.
func (f *Future[R]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result is available or ctx is done. When ctx wins,
// the context error is returned and the call keeps running in the background.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
