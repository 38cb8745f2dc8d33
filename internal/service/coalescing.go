package service

import (
	"context"
	"sync"
	"time"
)

// inFlightCall is a single upstream fetch that concurrent callers share.
type inFlightCall[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// coalescer collapses concurrent fetches for the same key into one upstream call.
// Results are never retained after the call completes.
type coalescer[T any] struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightCall[T]
	timeout  time.Duration
}

func newCoalescer[T any](timeout time.Duration) *coalescer[T] {
	return &coalescer[T]{
		inFlight: make(map[string]*inFlightCall[T]),
		timeout:  timeout,
	}
}

// Do returns the result of fn for key, joining a call already in flight when there is one.
// shared is true when the caller joined an existing call. The shared call runs detached
// from the first caller's cancellation, bounded by the coalescer timeout.
func (c *coalescer[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (val T, shared bool, err error) {
	c.mu.Lock()
	call, shared := c.inFlight[key]
	if !shared {
		call = &inFlightCall[T]{done: make(chan struct{})}
		c.inFlight[key] = call
		go c.run(context.WithoutCancel(ctx), key, call, fn)
	}
	c.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case <-call.done:
		return call.val, shared, call.err
	case <-waitCtx.Done():
		var zero T
		return zero, shared, waitCtx.Err()
	}
}

func (c *coalescer[T]) run(ctx context.Context, key string, call *inFlightCall[T], fn func(context.Context) (T, error)) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call.val, call.err = fn(ctx)

	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
	close(call.done)
}
