package fetch

import "sync"

// CancelHandle cancels an in-flight transport operation. Implementations
// must tolerate repeated calls and calls after completion.
type CancelHandle interface {
	Cancel()
}

// CancelFunc adapts a plain function to CancelHandle.
type CancelFunc func()

func (f CancelFunc) Cancel() {
	if f != nil {
		f()
	}
}

// Token holds at most one cancel handle for a request. Once cancelled, any
// handle stored afterwards is cancelled on arrival.
type Token struct {
	mu        sync.Mutex
	handle    CancelHandle
	cancelled bool
}

// Store replaces the held handle.
func (t *Token) Store(h CancelHandle) {
	if h == nil {
		return
	}
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		h.Cancel()
		return
	}
	t.handle = h
	t.mu.Unlock()
}

// Cancel cancels the held handle, if any, and marks the token cancelled.
func (t *Token) Cancel() {
	t.mu.Lock()
	h := t.handle
	t.handle = nil
	t.cancelled = true
	t.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
}

// Cancelled reports whether Cancel has been called.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}
