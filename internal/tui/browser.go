package tui

import (
	"sync"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/fetch"
)

// entry is what a browsable list shows for each row.
type entry interface {
	Key() string
	Title() string
	Description() string
}

type entryItem[T entry] struct{ value T }

func (i entryItem[T]) Title() string       { return i.value.Title() }
func (i entryItem[T]) Description() string { return i.value.Description() }
func (i entryItem[T]) FilterValue() string { return i.value.Title() }

// listStateMsg carries one controller snapshot into the bubbletea loop.
type listStateMsg[T entry] struct {
	list  string
	state fetch.State[T]
}

// stateFeed hands the newest published snapshot to a single reader. Older
// snapshots that were never read are overwritten.
type stateFeed[T entry] struct {
	mu     sync.Mutex
	latest fetch.State[T]
	have   bool
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newStateFeed[T entry]() *stateFeed[T] {
	return &stateFeed[T]{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (f *stateFeed[T]) push(s fetch.State[T]) {
	f.mu.Lock()
	if !f.have || s.Version > f.latest.Version {
		f.latest, f.have = s, true
	}
	f.mu.Unlock()

	select {
	case f.signal <- struct{}{}:
	default:
	}
}

func (f *stateFeed[T]) take() (fetch.State[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.latest, f.have
	f.have = false
	return s, ok
}

func (f *stateFeed[T]) close() { f.once.Do(func() { close(f.done) }) }

// browser binds a fetch.Search controller to a list, a search box and the
// snapshot bridge.
type browser[T entry] struct {
	name      string
	search    *fetch.Search[T]
	feed      *stateFeed[T]
	unsub     func()
	threshold int

	list  list.Model
	input textinput.Model

	state   fetch.State[T]
	version uint64
	started bool
	closed  bool
}

func newBrowser[T entry](name, title string, search *fetch.Search[T], threshold int) *browser[T] {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "› " + title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	in := textinput.New()
	in.Placeholder = "Filter " + title + " by name…"
	in.Prompt = "/ "

	return &browser[T]{
		name:      name,
		search:    search,
		feed:      newStateFeed[T](),
		threshold: threshold,
		list:      l,
		input:     in,
		state:     search.Snapshot(),
	}
}

// start subscribes to the controller, requests the first page and arms the
// reader command.
func (b *browser[T]) start() tea.Cmd {
	if b.started || b.closed {
		return nil
	}
	b.started = true
	b.unsub = b.search.Subscribe(b.feed.push)
	b.search.LoadPage(1, "")
	return b.listen()
}

// listen blocks until a snapshot is published or the browser is closed.
// Every handled listStateMsg re-arms it.
func (b *browser[T]) listen() tea.Cmd {
	feed, name := b.feed, b.name
	return func() tea.Msg {
		for {
			select {
			case <-feed.done:
				return nil
			case <-feed.signal:
			}
			if s, ok := feed.take(); ok {
				return listStateMsg[T]{list: name, state: s}
			}
		}
	}
}

// apply installs a snapshot unless a newer one has already been shown.
func (b *browser[T]) apply(msg listStateMsg[T]) tea.Cmd {
	if b.closed {
		return nil
	}
	if msg.state.Version < b.version {
		debuglog.Debugf("%s: dropping stale snapshot v%d (showing v%d)", b.name, msg.state.Version, b.version)
		return b.listen()
	}
	b.version = msg.state.Version
	b.state = msg.state

	items := make([]list.Item, len(msg.state.Items))
	for i, v := range msg.state.Items {
		items[i] = entryItem[T]{value: v}
	}
	cmd := b.list.SetItems(items)
	if len(items) == 0 {
		b.list.ResetSelected()
	}
	return tea.Batch(cmd, b.listen())
}

func (b *browser[T]) selected() (T, bool) {
	if it, ok := b.list.SelectedItem().(entryItem[T]); ok {
		return it.value, true
	}
	var zero T
	return zero, false
}

// maybePrefetch asks for the next page once the cursor is within threshold
// rows of the end.
func (b *browser[T]) maybePrefetch() bool {
	s := b.state
	n := len(b.list.Items())
	if s.IsLoading || !s.HasMore() || s.Err != nil || n == 0 {
		return false
	}
	if n-1-b.list.Index() > b.threshold {
		return false
	}
	debuglog.WithFields(map[string]interface{}{
		"list": b.name,
		"page": s.NextPage,
	}).Debugf("prefetching next page")
	b.search.LoadNextPage()
	return true
}

// retry repeats whatever failed: the next page when rows exist, otherwise page one.
func (b *browser[T]) retry() bool {
	if b.state.Err == nil {
		return false
	}
	if len(b.state.Items) > 0 && b.state.HasMore() {
		b.search.LoadNextPage()
	} else {
		b.search.Refresh()
	}
	return true
}

func (b *browser[T]) refresh() { b.search.Refresh() }

// setInput forwards typed text to the debounced search.
func (b *browser[T]) setInput(text string) { b.search.OnInputChanged(text) }

func (b *browser[T]) setSize(width, height int) {
	b.list.SetSize(width, max(height, 3))
	b.input.Width = max(width-8, 10)
}

func (b *browser[T]) close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.unsub != nil {
		b.unsub()
	}
	b.search.Close()
	b.feed.close()
}

// view draws the search box and either the rows or the full-screen loader.
func (b *browser[T]) view(width, height int, spin string) string {
	box := renderInputFrame(b.input.View(), b.input.Focused(), width)
	body := height - lipgloss.Height(box)

	if len(b.list.Items()) == 0 {
		var placeholder string
		switch {
		case b.state.IsLoading:
			placeholder = renderLoader(width, body, spin, MsgLoading)
		case b.state.Err != nil:
			placeholder = renderCentered(width, body, ErrorMessageStyle.Render("✗ "+oneLine(b.state.Err.Message)))
		default:
			placeholder = renderCentered(width, body, renderMuted(MsgNoResults))
		}
		return lipgloss.JoinVertical(lipgloss.Top, box, placeholder)
	}
	return lipgloss.JoinVertical(lipgloss.Top, box, b.list.View())
}

// status summarises the list for the status bar.
func (b *browser[T]) status(spin string) (string, StatusKind) {
	s := b.state
	switch {
	case s.Err != nil:
		return "✗ " + oneLine(s.Err.Message), StatusError
	case s.IsLoading && len(s.Items) > 0:
		return spin + " " + MsgLoadingPage(s.NextPage), StatusInfo
	case s.IsLoading:
		return spin + " " + MsgLoading, StatusInfo
	case s.IsLoaded:
		return MsgListSummary(len(s.Items), s.TotalCount, s.FilterText), StatusInfo
	}
	return "", StatusInfo
}
