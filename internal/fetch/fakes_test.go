package fetch

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCall struct {
	req       PageRequest
	done      func(PageResponse[string], error)
	cancelled atomic.Bool
}

func (c *fakeCall) succeed(next int, items ...string) {
	c.done(PageResponse[string]{Items: items, Next: next, Count: len(items)}, nil)
}

func (c *fakeCall) fail(err error) {
	c.done(PageResponse[string]{}, err)
}

type fakeSource struct {
	mu    sync.Mutex
	calls []*fakeCall
}

func (s *fakeSource) start(req PageRequest, done func(PageResponse[string], error)) CancelHandle {
	c := &fakeCall{req: req, done: done}
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	return CancelFunc(func() { c.cancelled.Store(true) })
}

func (s *fakeSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSource) call(t *testing.T, i int) *fakeCall {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Greater(t, len(s.calls), i, "call %d was never issued", i)
	return s.calls[i]
}

type fakeTimer struct {
	sched   *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler is a manual clock; timers fire only from Advance.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{sched: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func waitForState(t *testing.T, l *List[string], cond func(State[string]) bool) State[string] {
	t.Helper()
	var last State[string]
	require.Eventually(t, func() bool {
		last = l.Snapshot()
		return cond(last)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func notLoading(s State[string]) bool { return !s.IsLoading }
