package fetch

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingHandle struct{ n atomic.Int32 }

func (h *countingHandle) Cancel() { h.n.Add(1) }

func TestToken_CancelInvokesStoredHandle(t *testing.T) {
	var tok Token
	h := &countingHandle{}
	tok.Store(h)

	tok.Cancel()
	assert.Equal(t, int32(1), h.n.Load())
	assert.True(t, tok.Cancelled())

	// Slot is cleared, so a second cancel does not repeat the call.
	tok.Cancel()
	assert.Equal(t, int32(1), h.n.Load())
}

func TestToken_StoreReplacesPrevious(t *testing.T) {
	var tok Token
	first, second := &countingHandle{}, &countingHandle{}
	tok.Store(first)
	tok.Store(second)

	tok.Cancel()
	assert.Zero(t, first.n.Load())
	assert.Equal(t, int32(1), second.n.Load())
}

func TestToken_StoreAfterCancel(t *testing.T) {
	var tok Token
	tok.Cancel()

	h := &countingHandle{}
	tok.Store(h)
	assert.Equal(t, int32(1), h.n.Load(), "late handle must be cancelled on arrival")
}

func TestToken_ConcurrentStoreAndCancel(t *testing.T) {
	for i := 0; i < 200; i++ {
		var tok Token
		h := &countingHandle{}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); tok.Store(h) }()
		go func() { defer wg.Done(); tok.Cancel() }()
		wg.Wait()

		assert.Equal(t, int32(1), h.n.Load())
	}
}

func TestToken_NilHandleIgnored(t *testing.T) {
	var tok Token
	tok.Store(nil)
	tok.Cancel()
	assert.True(t, tok.Cancelled())
}
