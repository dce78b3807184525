package fetch

import (
	"context"
	"errors"
	"sync"
)

type futureState int

const (
	statePending futureState = iota
	stateSucceeded
	stateFailed
	stateCancelled
)

// Future is the single-resolution outcome of one request.
type Future[T any] struct {
	mu    sync.Mutex
	state futureState
	value T
	err   error
	done  chan struct{}
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve moves the future into a terminal state. It reports false when the
// future was already resolved, in which case nothing changes.
func (f *Future[T]) resolve(v T, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != statePending {
		return false
	}
	switch {
	case errors.Is(err, ErrCancelled):
		f.state = stateCancelled
		err = ErrCancelled
	case err != nil:
		f.state = stateFailed
	default:
		f.state = stateSucceeded
	}
	f.value, f.err = v, err
	close(f.done)
	return true
}

func (f *Future[T]) cancel() bool {
	var zero T
	return f.resolve(zero, ErrCancelled)
}

// Done is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result blocks until the future resolves and returns its outcome.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Wait is Result bounded by ctx. A ctx that ends first yields ErrCancelled
// without affecting the future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ErrCancelled
	}
}

// Cancelled reports whether the future resolved by cancellation.
func (f *Future[T]) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateCancelled
}

// StartFunc begins a callback-style call and returns a handle that cancels
// it. onComplete may run on any goroutine, including synchronously.
type StartFunc[T any] func(onComplete func(T, error)) CancelHandle

// Execute bridges a callback-style call into a Future. Cancelling ctx
// cancels the underlying call and resolves the future with ErrCancelled,
// unless the callback already resolved it. A completion that arrives after
// ctx is done also resolves as ErrCancelled.
func Execute[T any](ctx context.Context, start StartFunc[T]) *Future[T] {
	f := newFuture[T]()
	if ctx.Err() != nil {
		f.cancel()
		return f
	}

	tok := &Token{}
	stop := context.AfterFunc(ctx, func() {
		tok.Cancel()
		f.cancel()
	})

	h := start(func(v T, err error) {
		if ctx.Err() != nil {
			f.cancel()
			return
		}
		if f.resolve(v, err) {
			stop()
		}
	})
	tok.Store(h)
	return f
}
