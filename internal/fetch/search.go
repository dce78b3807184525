package fetch

import (
	"strings"
	"time"

	"github.com/pders01/rmql/internal/debuglog"
)

// DefaultDebounce is the quiet period before a search is sent.
const DefaultDebounce = 300 * time.Millisecond

// Search debounces filter input in front of a List. Intermediate keystrokes
// never reach the transport; a fired search still goes through the list's
// supersede rules.
type Search[T any] struct {
	list     *List[T]
	debounce *Debouncer
}

// NewSearch wraps list. A zero delay uses DefaultDebounce and a nil sched
// uses the runtime timer.
func NewSearch[T any](list *List[T], delay time.Duration, sched Scheduler) *Search[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Search[T]{
		list:     list,
		debounce: NewDebouncer(delay, sched),
	}
}

// List returns the underlying list.
func (s *Search[T]) List() *List[T] { return s.list }

// OnInputChanged echoes text immediately and schedules a page-1 fetch for it.
func (s *Search[T]) OnInputChanged(text string) {
	s.list.SetFilterText(text)
	filter := strings.TrimSpace(text)
	s.debounce.Trigger(func() { s.fire(filter) })
}

func (s *Search[T]) fire(filter string) {
	if s.list.isCurrent(filter) {
		debuglog.Debugf("list %s: filter %q unchanged, skipping fetch", s.list.Name(), filter)
		return
	}
	s.list.LoadPage(1, filter)
}

// Pending reports whether a debounced fetch is waiting to fire.
func (s *Search[T]) Pending() bool { return s.debounce.Pending() }

// LoadPage cancels any pending debounced fetch and loads page directly.
func (s *Search[T]) LoadPage(page int, filter string) {
	s.debounce.Cancel()
	s.list.LoadPage(page, filter)
}

// LoadNextPage forwards to the list.
func (s *Search[T]) LoadNextPage() { s.list.LoadNextPage() }

// Refresh drops any pending debounced fetch and reloads page 1.
func (s *Search[T]) Refresh() {
	s.debounce.Cancel()
	s.list.Refresh()
}

// Snapshot returns a copy of the list state.
func (s *Search[T]) Snapshot() State[T] { return s.list.Snapshot() }

// Subscribe registers fn on the underlying list.
func (s *Search[T]) Subscribe(fn func(State[T])) func() { return s.list.Subscribe(fn) }

// Close stops the debouncer and tears down the list.
func (s *Search[T]) Close() {
	s.debounce.Stop()
	s.list.Close()
}
