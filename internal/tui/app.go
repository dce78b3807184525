package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/rmql/internal/config"
	"github.com/pders01/rmql/internal/media"
	"github.com/pders01/rmql/internal/rickmorty"
	"github.com/pders01/rmql/internal/search"
	"github.com/pders01/rmql/internal/storage"
)

const (
	characterList = "characters"
	locationList  = "locations"
)

// opener launches external viewers.
type opener interface {
	Open(url string) error
}

type App struct {
	config     *config.Config
	store      *storage.Store
	searcher   search.Searcher
	launcher   opener
	keys       keyMap
	keyHandler *KeyHandler

	characters *browser[rickmorty.Character]
	locations  *browser[rickmorty.Location]

	recentList  list.Model
	recentInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model

	view         View
	previousView View
	listView     View
	current      *storage.Recent

	width, height int
	err           error
	status        string
	statusKind    StatusKind
	spinning      bool
	rendering     bool

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	closeOnce       sync.Once
}

// NewApp wires both list controllers to transport. store and searcher may be
// nil, in which case history is disabled.
func NewApp(cfg *config.Config, store *storage.Store, transport rickmorty.Transport, searcher search.Searcher) *App {
	ApplyTheme(cfg.UI.Colors)

	recent := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	recent.Title = "› recent"
	recent.SetShowStatusBar(false)
	recent.SetFilteringEnabled(false)
	recent.SetShowHelp(false)

	ri := textinput.New()
	ri.Placeholder = "Search history…"
	ri.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	app := &App{
		config:   cfg,
		store:    store,
		searcher: searcher,
		launcher: media.NewLauncher(cfg),
		keys:     newKeyMap(cfg.Keys),
		characters: newBrowser(characterList, "characters",
			rickmorty.NewCharacterSearch(transport, cfg.Search.Debounce), cfg.Search.PrefetchThreshold),
		locations: newBrowser(locationList, "locations",
			rickmorty.NewLocationSearch(transport, cfg.Search.Debounce), cfg.Search.PrefetchThreshold),
		recentList:   recent,
		recentInput:  ri,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		help:         help.New(),
		view:         ViewCharacters,
		previousView: ViewCharacters,
		listView:     ViewCharacters,
	}
	app.keyHandler = NewKeyHandler(app)
	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.characters.start(),
		a.locations.start(),
		a.startSpinner(),
	)
}

// Close tears down both controllers. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.characters.close()
		a.locations.close()
	})
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	d := a.config.UI.Detail
	wrap := clamp(a.width*9/10, d.WordWrapMinWidth, d.WordWrapMaxWidth)
	if a.width > 0 && a.width < d.WordWrapMinWidth+10 {
		wrap = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wrap) > 10 {
		style := glamour.WithStandardStyle(d.GlamourStyle)
		if d.GlamourStyle == "" || d.GlamourStyle == "auto" {
			style = glamour.WithAutoStyle()
		}
		r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) contentHeight() int { return max(a.height-2, 1) }

func (a *App) resize() {
	h := a.contentHeight()
	a.characters.setSize(a.width, h-3)
	a.locations.setSize(a.width, h-3)
	a.recentList.SetSize(a.width, max(h-3, 3))
	a.recentInput.Width = max(a.width-8, 10)
	a.viewport.Width = a.width
	a.viewport.Height = max(h-1, 1)
	a.help.Width = a.width
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status, a.statusKind = text, kind
}

// busy reports whether anything on screen is waiting.
func (a *App) busy() bool {
	return a.rendering || a.characters.state.IsLoading || a.locations.state.IsLoading
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		resized := msg.Width != a.width
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		if resized && a.view.isDetail() && a.current != nil {
			if r, err := a.getRenderer(); err == nil {
				return a, renderDetail(r, a.current)
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case listStateMsg[rickmorty.Character]:
		cmd := a.characters.apply(msg)
		return a, tea.Batch(cmd, a.afterState(msg.state.IsLoading, a.view == ViewCharacters, a.characters))

	case listStateMsg[rickmorty.Location]:
		cmd := a.locations.apply(msg)
		return a, tea.Batch(cmd, a.afterState(msg.state.IsLoading, a.view == ViewLocations, a.locations))

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case detailRenderedMsg:
		if a.current != nil && a.current.Key == msg.key && a.view.isDetail() {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.rendering = false
			a.setStatus("", StatusInfo)
		}
		return a, nil

	case recentLoadedMsg:
		a.setRecentItems(recentItemsFromEntries(msg.entries))
		return a, nil

	case recentResultsMsg:
		if strings.TrimSpace(a.recentInput.Value()) != msg.query {
			return a, nil
		}
		a.setRecentItems(recentItemsFromResults(msg.results))
		if len(msg.results) == 0 {
			a.setStatus(MsgNoResults, StatusWarn)
		} else {
			a.setStatus(MsgResultsCount(len(msg.results)), StatusInfo)
		}
		return a, nil

	case recentClearedMsg:
		a.setRecentItems(nil)
		a.setStatus(MsgRecentCleared, StatusSuccess)
		return a, nil

	case queriesLoadedMsg:
		if b := a.activeInput(msg.list); b != nil {
			b.SetSuggestions(msg.queries)
			b.ShowSuggestions = len(msg.queries) > 0
		}
		return a, nil

	case statusMsg:
		a.err = nil
		a.setStatus(msg.text, msg.kind)
		return a, nil

	case errorMsg:
		a.err = msg.err
		a.rendering = false
		return a, nil
	}

	if a.view.isDetail() {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

type prefetcher interface {
	maybePrefetch() bool
}

// afterState restarts the spinner when a load began and lets a visible list
// that is shorter than the screen keep filling.
func (a *App) afterState(loading, visible bool, b prefetcher) tea.Cmd {
	if loading {
		return a.startSpinner()
	}
	if visible && b.maybePrefetch() {
		return a.startSpinner()
	}
	return nil
}

func (a *App) activeInput(list string) *textinput.Model {
	switch list {
	case characterList:
		return &a.characters.input
	case locationList:
		return &a.locations.input
	}
	return nil
}

func (a *App) setRecentItems(items []list.Item) {
	a.recentList.SetItems(items)
	if len(items) == 0 {
		a.recentList.ResetSelected()
	}
}

func (a *App) View() string {
	h := a.contentHeight()
	var content string

	switch a.view {
	case ViewCharacters:
		content = a.characters.view(a.width, h, a.spinner.View())
	case ViewLocations:
		content = a.locations.view(a.width, h, a.spinner.View())
	case ViewCharacterDetail, ViewLocationDetail:
		title, sub := "", ""
		if a.current != nil {
			title, sub = a.current.Title, a.current.Subtitle
		}
		body := a.viewport.View()
		if a.rendering {
			body = renderCentered(a.width, h-1, a.spinner.View()+" "+renderMuted(MsgRendering))
		}
		content = lipgloss.JoinVertical(lipgloss.Top, renderHeader("› "+title, sub, a.width), body)
	case ViewRecent:
		box := renderInputFrame(a.recentInput.View(), a.recentInput.Focused(), a.width)
		body := a.recentList.View()
		if len(a.recentList.Items()) == 0 {
			body = renderCentered(a.width, h-lipgloss.Height(box), renderMuted("Nothing opened yet"))
		}
		content = lipgloss.JoinVertical(lipgloss.Top, box, body)
	case ViewHelp:
		content = renderCentered(a.width, h, lipgloss.JoinVertical(
			lipgloss.Center,
			GetCompactBanner(""),
			"",
			a.help.FullHelpView(a.keys.FullHelp()),
			"",
			renderHelp("Press "+a.config.Keys.Bindings.Back+" to go back"),
		))
	}

	content = lipgloss.NewStyle().Width(a.width).Height(h).MaxHeight(h).Render(content)
	return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width), a.getCustomStatusBar())
}

func (a *App) getCustomStatusBar() string {
	bar := StatusBarStyle.Width(a.width)

	if a.err != nil {
		return bar.Render(ErrorMessageStyle.Render("✗ " + oneLine(a.err.Error())))
	}

	text, kind := a.status, a.statusKind
	switch a.view {
	case ViewCharacters:
		if t, k := a.characters.status(a.spinner.View()); t != "" {
			text, kind = t, k
		}
	case ViewLocations:
		if t, k := a.locations.status(a.spinner.View()); t != "" {
			text, kind = t, k
		}
	}

	commands := strings.Join(a.keyHandler.GetHelpForCurrentView(), " • ")
	if text == "" {
		return bar.Render(commands)
	}
	return bar.Render(kind.style().Render(text) + renderMuted(" │ "+commands))
}

type recentItem struct {
	entry   *storage.Recent
	snippet string
}

func (i recentItem) Title() string {
	icon := "◎ "
	if i.entry.Kind == storage.KindLocation {
		icon = "◇ "
	}
	return icon + i.entry.Title
}

func (i recentItem) Description() string {
	desc := i.entry.Subtitle
	if i.snippet != "" {
		desc = i.snippet
	}
	return truncateEnd(desc, 60) + openedAt(i.entry)
}

func (i recentItem) FilterValue() string { return i.entry.Title }

func openedAt(r *storage.Recent) string {
	if r.OpenedAt.IsZero() {
		return ""
	}
	return renderMuted(" • " + r.OpenedAt.Format("Jan 2, 15:04"))
}

func recentItemsFromEntries(entries []*storage.Recent) []list.Item {
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, recentItem{entry: e})
	}
	return items
}

func recentItemsFromResults(results []*search.Result) []list.Item {
	items := make([]list.Item, 0, len(results))
	for _, r := range results {
		it := recentItem{entry: r.Recent}
		for _, m := range r.Matches {
			if m.Field == "details" {
				it.snippet = m.Text
			}
		}
		items = append(items, it)
	}
	return items
}
