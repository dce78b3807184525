package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/rmql/internal/fetch"
	"github.com/pders01/rmql/internal/rickmorty"
)

func TestStateFeed_KeepsNewestUnread(t *testing.T) {
	f := newStateFeed[rickmorty.Character]()

	f.push(fetch.State[rickmorty.Character]{Version: 1})
	f.push(fetch.State[rickmorty.Character]{Version: 3})
	f.push(fetch.State[rickmorty.Character]{Version: 2})

	s, ok := f.take()
	require.True(t, ok)
	assert.Equal(t, uint64(3), s.Version)

	_, ok = f.take()
	assert.False(t, ok, "a snapshot is handed out once")
}

func TestBrowser_ListenReturnsNilAfterClose(t *testing.T) {
	app, _, _ := newTestApp(t)
	b := app.characters

	done := make(chan tea.Msg, 1)
	go func() { done <- b.listen()() }()
	b.close()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestBrowser_StaleSnapshotIgnored(t *testing.T) {
	app, _, _ := newTestApp(t)

	newer := fetch.State[rickmorty.Character]{
		Version:  5,
		Items:    []rickmorty.Character{{ID: "1", Name: "Rick Sanchez"}},
		IsLoaded: true,
	}
	older := fetch.State[rickmorty.Character]{
		Version: 3,
		Items:   []rickmorty.Character{{ID: "2", Name: "Morty Smith"}},
	}

	app.Update(listStateMsg[rickmorty.Character]{list: characterList, state: newer})
	app.Update(listStateMsg[rickmorty.Character]{list: characterList, state: older})

	require.Len(t, app.characters.list.Items(), 1)
	c, ok := app.characters.selected()
	require.True(t, ok)
	assert.Equal(t, "Rick Sanchez", c.Name)
	assert.Equal(t, uint64(5), app.characters.version)
}

func TestBrowser_InitLoadsFirstPages(t *testing.T) {
	app, tr, _ := newTestApp(t)

	app.Init()
	settle(t, app, app.characters)
	settle(t, app, app.locations)

	assert.Len(t, app.characters.list.Items(), 5)
	assert.Len(t, app.locations.list.Items(), 1)
	assert.True(t, app.characters.state.HasMore())
	assert.False(t, app.locations.state.HasMore())

	reqs := tr.requests("GetCharacters")
	require.Len(t, reqs, 1)
	assert.Equal(t, 1, reqs[0].Variables["page"])
	assert.Nil(t, reqs[0].Variables["name"])
}

func TestBrowser_Status(t *testing.T) {
	app, _, _ := newTestApp(t)
	b := app.characters

	b.state = fetch.State[rickmorty.Character]{IsLoading: true}
	text, kind := b.status("*")
	assert.Equal(t, "* "+MsgLoading, text)
	assert.Equal(t, StatusInfo, kind)

	b.state = fetch.State[rickmorty.Character]{
		Items:     []rickmorty.Character{{ID: "1"}},
		IsLoading: true,
		NextPage:  2,
	}
	text, _ = b.status("*")
	assert.Equal(t, "* Loading page 2…", text)

	b.state = fetch.State[rickmorty.Character]{Err: &fetch.ErrorInfo{Kind: fetch.KindTransport, Message: "first\nsecond"}}
	text, kind = b.status("*")
	assert.Equal(t, "✗ first second", text)
	assert.Equal(t, StatusError, kind)

	b.state = fetch.State[rickmorty.Character]{
		Items:      []rickmorty.Character{{ID: "1"}},
		IsLoaded:   true,
		TotalCount: 826,
		FilterText: "rick",
	}
	text, _ = b.status("*")
	assert.Equal(t, `1 of 826 • name: "rick"`, text)
}

func TestBrowser_RetryNeedsError(t *testing.T) {
	app, tr, _ := newTestApp(t)
	b := app.characters

	assert.False(t, b.retry())
	assert.Empty(t, tr.requests("GetCharacters"))

	b.state = fetch.State[rickmorty.Character]{Err: &fetch.ErrorInfo{Message: "boom"}}
	assert.True(t, b.retry())
	assert.Len(t, tr.requests("GetCharacters"), 1)
}
