package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/rickmorty"
	"github.com/pders01/rmql/internal/search"
	"github.com/pders01/rmql/internal/storage"
)

type detailRenderedMsg struct {
	key     string
	content string
}

type recentLoadedMsg struct {
	entries []*storage.Recent
}

type recentResultsMsg struct {
	query   string
	results []*search.Result
}

type queriesLoadedMsg struct {
	list    string
	queries []string
}

type recentClearedMsg struct{}

type statusMsg struct {
	text string
	kind StatusKind
}

type errorMsg struct {
	err error
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

func characterMarkdown(c rickmorty.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	if c.Image != "" {
		fmt.Fprintf(&b, "[Avatar](%s)\n\n", c.Image)
	}
	for _, row := range [][2]string{
		{"Status", c.Status},
		{"Species", c.Species},
		{"Type", c.Type},
		{"Gender", c.Gender},
		{"Origin", c.Origin},
		{"Last known location", c.Location},
	} {
		if row[1] != "" {
			fmt.Fprintf(&b, "- **%s:** %s\n", row[0], row[1])
		}
	}
	fmt.Fprintf(&b, "- **Episodes:** %d\n", c.Episodes)
	return b.String()
}

func locationMarkdown(l rickmorty.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", l.Name)
	if l.Type != "" {
		fmt.Fprintf(&b, "- **Type:** %s\n", l.Type)
	}
	if l.Dimension != "" {
		fmt.Fprintf(&b, "- **Dimension:** %s\n", l.Dimension)
	}
	fmt.Fprintf(&b, "- **Residents:** %d\n", l.Residents)
	return b.String()
}

func recentFromCharacter(c rickmorty.Character) *storage.Recent {
	return &storage.Recent{
		Key:      c.Key(),
		Kind:     storage.KindCharacter,
		ID:       c.ID,
		Title:    c.Name,
		Subtitle: c.Description(),
		Details:  characterMarkdown(c),
		Image:    c.Image,
	}
}

func recentFromLocation(l rickmorty.Location) *storage.Recent {
	return &storage.Recent{
		Key:      l.Key(),
		Kind:     storage.KindLocation,
		ID:       l.ID,
		Title:    l.Name,
		Subtitle: l.Description(),
		Details:  locationMarkdown(l),
	}
}

func renderDetail(r *glamour.TermRenderer, entry *storage.Recent) tea.Cmd {
	key, md := entry.Key, entry.Details
	return func() tea.Msg {
		out, err := r.Render(md)
		if err != nil {
			// Always answer so the loading flag clears.
			out = fmt.Sprintf("Failed to render %s: %v\n\nPress esc to go back.", key, err)
		}
		return detailRenderedMsg{key: key, content: out}
	}
}

// remember records an opened entry in history, indexes it and files the
// filter that led to it.
func (a *App) remember(entry storage.Recent, list, filter string) tea.Cmd {
	store, searcher, size := a.store, a.searcher, a.config.Search.HistorySize
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		if err := retryOperation(func() error { return store.SaveRecent(&entry) }); err != nil {
			return errorMsg{err: wrapErr("saving history", err)}
		}
		if ix, ok := searcher.(search.Indexer); ok {
			if err := ix.Index(&entry); err != nil {
				debuglog.Warnf("indexing %s: %v", entry.Key, err)
			}
		}
		if list != "" && strings.TrimSpace(filter) != "" {
			if err := store.AddQuery(list, filter, size); err != nil {
				debuglog.Warnf("recording query for %s: %v", list, err)
			}
		}
		return nil
	}
}

func (a *App) loadRecent() tea.Cmd {
	store, limit := a.store, a.config.Search.RecentLimit
	return func() tea.Msg {
		if store == nil {
			return recentLoadedMsg{}
		}
		entries, err := store.GetRecent(limit)
		if err != nil {
			return errorMsg{err: wrapErr("loading history", err)}
		}
		return recentLoadedMsg{entries: entries}
	}
}

func (a *App) searchRecent(query string) tea.Cmd {
	searcher := a.searcher
	return func() tea.Msg {
		if searcher == nil {
			return recentResultsMsg{query: query}
		}
		results, err := searcher.Search(query, 50)
		if err != nil {
			return errorMsg{err: wrapErr("searching history", err)}
		}
		return recentResultsMsg{query: query, results: results}
	}
}

func (a *App) clearRecent() tea.Cmd {
	store, searcher := a.store, a.searcher
	return func() tea.Msg {
		if store == nil {
			return recentClearedMsg{}
		}
		if ix, ok := searcher.(search.Indexer); ok {
			if entries, err := store.GetRecent(0); err == nil {
				for _, e := range entries {
					if err := ix.Remove(e.Key); err != nil {
						debuglog.Warnf("unindexing %s: %v", e.Key, err)
					}
				}
			}
		}
		if err := retryOperation(store.ClearRecent); err != nil {
			return errorMsg{err: wrapErr("clearing history", err)}
		}
		return recentClearedMsg{}
	}
}

func (a *App) loadQueries(list string) tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		queries, err := store.GetQueries(list)
		if err != nil {
			debuglog.Warnf("loading queries for %s: %v", list, err)
			return nil
		}
		return queriesLoadedMsg{list: list, queries: queries}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	launcher := a.launcher
	return func() tea.Msg {
		if url == "" {
			return statusMsg{text: MsgNoImage, kind: StatusWarn}
		}
		if err := launcher.Open(url); err != nil {
			return errorMsg{err: wrapErr("opening image", err)}
		}
		return statusMsg{text: MsgOpened(url), kind: StatusSuccess}
	}
}

// retryOperation retries a database operation with exponential backoff.
func retryOperation(operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	return backoff.Retry(operation, backoff.WithMaxRetries(b, 2))
}
