package tui

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pders01/rmql/internal/config"
	"github.com/pders01/rmql/internal/fetch"
	"github.com/pders01/rmql/internal/graphql"
	"github.com/pders01/rmql/internal/search"
	"github.com/pders01/rmql/internal/storage"
)

// fakeTransport answers synchronously from canned pages keyed by operation
// name and page number.
type fakeTransport struct {
	mu    sync.Mutex
	reqs  []graphql.Request
	pages map[string]map[int]string
	err   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{pages: map[string]map[int]string{
		"GetCharacters": {
			1: characterPage(2, 1, 5),
			2: characterPage(0, 6, 1),
		},
		"SearchLocations": {
			1: `{"locations":{"info":{"count":1,"pages":1,"next":null},"results":[
			  {"id":"3","name":"Citadel of Ricks","type":"Space station","dimension":"unknown","residents":[{"id":"1"}]}]}}`,
		},
	}}
}

func characterPage(next, first, n int) string {
	results := make([]string, 0, n)
	for i := first; i < first+n; i++ {
		results = append(results, fmt.Sprintf(
			`{"id":"%d","name":"Rick %d","status":"Alive","species":"Human","image":"https://rickandmortyapi.com/api/character/avatar/%d.jpeg","location":{"name":"Earth"},"episode":[{"id":"1"}]}`,
			i, i, i))
	}
	nextJSON := "null"
	if next > 0 {
		nextJSON = fmt.Sprint(next)
	}
	return fmt.Sprintf(`{"characters":{"info":{"count":6,"pages":2,"next":%s},"results":[%s]}}`,
		nextJSON, strings.Join(results, ","))
}

func (f *fakeTransport) StartCall(req graphql.Request, onComplete func(*graphql.Response, error)) fetch.CancelHandle {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	err := f.err
	page, _ := req.Variables["page"].(int)
	body := f.pages[req.OperationName][page]
	f.mu.Unlock()

	if err != nil {
		onComplete(nil, err)
	} else {
		onComplete(&graphql.Response{Data: json.RawMessage(body)}, nil)
	}
	return fetch.CancelFunc(func() {})
}

func (f *fakeTransport) requests(op string) []graphql.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []graphql.Request
	for _, r := range f.reqs {
		if r.OperationName == op {
			out = append(out, r)
		}
	}
	return out
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
}

func (o *fakeOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, url)
	return nil
}

func newTestApp(t *testing.T) (*App, *fakeTransport, *storage.Store) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tr := newFakeTransport()
	app := NewApp(config.TestConfig(), store, tr, search.NewEngine(store))
	app.launcher = &fakeOpener{}
	t.Cleanup(app.Close)

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, tr, store
}

// settle pumps snapshots from b into the app until b's controller is idle.
func settle[T entry](t *testing.T, app *App, b *browser[T]) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		msgs := make(chan tea.Msg, 1)
		go func() { msgs <- b.listen()() }()

		select {
		case msg := <-msgs:
			require.NotNil(t, msg, "bridge closed while settling")
			app.Update(msg)
			if !b.state.IsLoading {
				return
			}
		case <-deadline:
			t.Fatal("list never settled")
		}
	}
}

// run executes cmd and any batched commands, returning the produced messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
