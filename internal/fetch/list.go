package fetch

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pders01/rmql/internal/debuglog"
)

// List owns the paginated state of one entity list. Only the most recently
// issued request may change that state; older requests are cancelled when
// superseded and their results are dropped whenever they arrive.
type List[T any] struct {
	name   string
	source PageSource[T]

	mu     sync.Mutex
	state  State[T]
	gen    uint64
	cancel context.CancelFunc
	active PageRequest
	issued bool
	// applied is set once the request identified by gen succeeded.
	applied bool
	closed  bool

	ctx     context.Context
	stopAll context.CancelFunc

	subs   []subscriber[T]
	nextID int
	// delivering counts notify calls in progress; Close waits on it.
	delivering sync.WaitGroup
}

type subscriber[T any] struct {
	id int
	fn func(State[T])
}

// NewList creates a list that fetches pages from source. name is used in
// logs only.
func NewList[T any](name string, source PageSource[T]) *List[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &List[T]{
		name:    name,
		source:  source,
		state:   initialState[T](),
		ctx:     ctx,
		stopAll: cancel,
	}
}

// Name returns the list name.
func (l *List[T]) Name() string { return l.name }

// Subscribe registers fn to receive every published snapshot. Snapshots
// can arrive out of order across goroutines; compare Version to discard
// stale ones. fn must not block and must not call Close.
func (l *List[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return func() {}
	}
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a copy of the current state.
func (l *List[T]) Snapshot() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// SetFilterText records text as the filter shown to the user without
// fetching anything.
func (l *List[T]) SetFilterText(text string) {
	l.mu.Lock()
	if l.closed || l.state.FilterText == text {
		l.mu.Unlock()
		return
	}
	l.state.FilterText = text
	snap, subs := l.publishLocked()
	l.mu.Unlock()

	l.notify(snap, subs)
}

// LoadPage supersedes any outstanding request and fetches page with filter.
// Page 1 clears the current items before the request is sent.
func (l *List[T]) LoadPage(page int, filter string) {
	if page < 1 {
		page = 1
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.issueLocked(PageRequest{Page: page, Filter: filter})
}

// LoadNextPage fetches the page after the last applied one. It does nothing
// at the end of the list or while a fetch is in flight.
func (l *List[T]) LoadNextPage() {
	l.mu.Lock()
	if l.closed || l.state.NextPage == 0 || l.state.IsLoading {
		l.mu.Unlock()
		return
	}
	l.issueLocked(PageRequest{Page: l.state.NextPage, Filter: l.active.Filter})
}

// Refresh resets pagination and reloads page 1 for the current filter text.
func (l *List[T]) Refresh() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.state.CurrentPage = 1
	l.state.NextPage = 1
	l.issueLocked(PageRequest{Page: 1, Filter: strings.TrimSpace(l.state.FilterText)})
}

// Cancel abandons the outstanding request without issuing a new one.
func (l *List[T]) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close cancels the outstanding request and detaches all subscribers. It
// waits for deliveries already in progress, so no result applies and no
// subscriber runs after Close returns.
func (l *List[T]) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		if l.cancel != nil {
			l.cancel()
			l.cancel = nil
		}
		l.stopAll()
		l.subs = nil
		debuglog.Debugf("list %s closed", l.name)
	}
	l.mu.Unlock()

	l.delivering.Wait()
}

// issueLocked starts req as the authoritative request. It must be called
// with l.mu held and releases it.
func (l *List[T]) issueLocked(req PageRequest) {
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(l.ctx)
	l.cancel = cancel
	l.active = req
	l.issued = true
	l.applied = false

	l.state.IsLoading = true
	l.state.Err = nil
	if req.Page == 1 {
		l.state.Items = nil
		// Keep the echoed input when it only differs by surrounding space.
		if strings.TrimSpace(l.state.FilterText) != req.Filter {
			l.state.FilterText = req.Filter
		}
	}
	snap, subs := l.publishLocked()
	l.mu.Unlock()

	debuglog.WithFields(map[string]interface{}{
		"list": l.name, "page": req.Page, "filter": req.Filter, "gen": gen,
	}).Debugf("loading page")
	l.notify(snap, subs)

	fut := Execute(ctx, func(done func(PageResponse[T], error)) CancelHandle {
		return l.source(req, done)
	})
	go l.await(gen, req, fut)
}

func (l *List[T]) await(gen uint64, req PageRequest, fut *Future[PageResponse[T]]) {
	resp, err := fut.Result()

	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		debuglog.Debugf("list %s: dropping result for page %d (gen %d)", l.name, req.Page, gen)
		return
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	l.state.IsLoading = false
	switch {
	case errors.Is(err, ErrCancelled):
	case err != nil:
		l.state.Err = Describe(err)
		debuglog.Warnf("list %s: page %d failed: %v", l.name, req.Page, err)
	default:
		if req.Page == 1 {
			l.state.Items = append([]T(nil), resp.Items...)
		} else {
			l.state.Items = append(l.state.Items, resp.Items...)
		}
		l.state.CurrentPage = req.Page
		l.state.NextPage = resp.Next
		l.state.TotalCount = resp.Count
		l.state.IsLoaded = true
		l.applied = true
	}
	snap, subs := l.publishLocked()
	l.mu.Unlock()

	l.notify(snap, subs)
}

// isCurrent reports whether filter matches the last issued request and that
// request is either in flight or applied.
func (l *List[T]) isCurrent(filter string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.issued && l.active.Filter == filter && (l.state.IsLoading || l.applied)
}

// publishLocked must only be called while the list is open, and its result
// must be handed to notify.
func (l *List[T]) publishLocked() (State[T], []subscriber[T]) {
	l.delivering.Add(1)
	l.state.Version++
	subs := make([]subscriber[T], len(l.subs))
	copy(subs, l.subs)
	return l.state.clone(), subs
}

// notify delivers s, skipping subscribers once the list is closed.
func (l *List[T]) notify(s State[T], subs []subscriber[T]) {
	defer l.delivering.Done()
	for _, sub := range subs {
		if l.isClosed() {
			return
		}
		sub.fn(s)
	}
}

func (l *List[T]) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
