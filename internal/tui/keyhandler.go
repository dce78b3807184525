package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/storage"
)

type KeyHandler struct {
	app  *App
	keys keyMap
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app, keys: app.keys}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewCharacters:
		return kh.app.characters.input.Focused()
	case ViewLocations:
		return kh.app.locations.input.Focused()
	case ViewRecent:
		return kh.app.recentInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.quit()
	case "esc", "enter", "down":
		// Leaving the box keeps its text; the search already follows it.
		kh.blurInput()
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) blurInput() {
	switch kh.app.view {
	case ViewCharacters:
		kh.app.characters.input.Blur()
	case ViewLocations:
		kh.app.locations.input.Blur()
	case ViewRecent:
		kh.app.recentInput.Blur()
	}
}

// delegateToTextInput updates the focused box and forwards edits.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewCharacters:
		return a, updateBrowserInput(a.characters, msg)
	case ViewLocations:
		return a, updateBrowserInput(a.locations, msg)
	case ViewRecent:
		prev := a.recentInput.Value()
		var cmd tea.Cmd
		a.recentInput, cmd = a.recentInput.Update(msg)
		if a.recentInput.Value() == prev {
			return a, cmd
		}
		q := strings.TrimSpace(a.recentInput.Value())
		if len([]rune(q)) < 2 {
			return a, tea.Batch(cmd, a.loadRecent())
		}
		return a, tea.Batch(cmd, a.searchRecent(q))
	}
	return a, nil
}

func updateBrowserInput[T entry](b *browser[T], msg tea.KeyMsg) tea.Cmd {
	prev := b.input.Value()
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	if v := b.input.Value(); v != prev {
		b.setInput(v)
	}
	return cmd
}

// handleCustomKeys handles only our custom action keys.
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys

	switch {
	case key.Matches(msg, k.Quit):
		model, cmd := kh.quit()
		return model, cmd, true
	case key.Matches(msg, k.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, k.Help):
		if a.view == ViewHelp {
			model, cmd := kh.navigateBack()
			return model, cmd, true
		}
		kh.enter(ViewHelp)
		return a, nil, true
	case key.Matches(msg, k.Recent):
		model, cmd := kh.enterRecent()
		return model, cmd, true
	}

	switch a.view {
	case ViewCharacters, ViewLocations:
		return kh.handleListCustomKeys(msg)
	case ViewCharacterDetail:
		if key.Matches(msg, k.OpenImage) && a.current != nil {
			return a, a.openURL(a.current.Image), true
		}
	case ViewRecent:
		return kh.handleRecentCustomKeys(msg)
	}
	return a, nil, false
}

func (kh *KeyHandler) handleListCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys
	chars := a.view == ViewCharacters

	switch {
	case key.Matches(msg, k.SwitchTab):
		if chars {
			a.view = ViewLocations
		} else {
			a.view = ViewCharacters
		}
		a.listView = a.view
		a.err = nil
		return a, nil, true

	case key.Matches(msg, k.Search):
		var cmd tea.Cmd
		if chars {
			cmd = a.characters.input.Focus()
			return a, tea.Batch(cmd, a.loadQueries(characterList)), true
		}
		cmd = a.locations.input.Focus()
		return a, tea.Batch(cmd, a.loadQueries(locationList)), true

	case key.Matches(msg, k.Refresh):
		a.err = nil
		a.setStatus(MsgRefreshing, StatusInfo)
		if chars {
			a.characters.refresh()
		} else {
			a.locations.refresh()
		}
		return a, a.startSpinner(), true

	case key.Matches(msg, k.Retry):
		var retried bool
		if chars {
			retried = a.characters.retry()
		} else {
			retried = a.locations.retry()
		}
		if !retried {
			a.setStatus(MsgNothingToRetry, StatusWarn)
			return a, nil, true
		}
		a.setStatus(MsgRetrying, StatusInfo)
		return a, a.startSpinner(), true

	case key.Matches(msg, k.Open):
		if chars {
			if c, ok := a.characters.selected(); ok {
				filter := a.characters.state.FilterText
				return a, kh.openDetail(recentFromCharacter(c), ViewCharacterDetail, characterList, filter), true
			}
		} else if l, ok := a.locations.selected(); ok {
			filter := a.locations.state.FilterText
			return a, kh.openDetail(recentFromLocation(l), ViewLocationDetail, locationList, filter), true
		}
		return a, nil, true

	case key.Matches(msg, k.OpenImage):
		if c, ok := a.characters.selected(); ok && chars {
			return a, a.openURL(c.Image), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleRecentCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys

	switch {
	case key.Matches(msg, k.Search):
		return a, a.recentInput.Focus(), true
	case key.Matches(msg, k.ClearRecent):
		return a, a.clearRecent(), true
	case key.Matches(msg, k.Open):
		if it, ok := a.recentList.SelectedItem().(recentItem); ok {
			view := ViewCharacterDetail
			if it.entry.Kind != storage.KindCharacter {
				view = ViewLocationDetail
			}
			entry := *it.entry
			return a, kh.openDetail(&entry, view, "", ""), true
		}
		return a, nil, true
	}
	return a, nil, false
}

// openDetail shows entry, renders it and files it in history.
func (kh *KeyHandler) openDetail(entry *storage.Recent, view View, list, filter string) tea.Cmd {
	a := kh.app
	kh.enter(view)
	a.current = entry
	a.rendering = true
	a.err = nil
	a.setStatus(MsgRendering, StatusInfo)

	debuglog.WithFields(map[string]interface{}{
		"key":  entry.Key,
		"view": view.String(),
	}).Infof("opening detail")

	r, err := a.getRenderer()
	if err != nil {
		a.rendering = false
		return func() tea.Msg { return errorMsg{err: wrapErr("initialising renderer", err)} }
	}
	return tea.Batch(a.startSpinner(), renderDetail(r, entry), a.remember(*entry, list, filter))
}

// enter switches views and remembers where to return to.
func (kh *KeyHandler) enter(view View) {
	a := kh.app
	if a.view != view && !a.view.isDetail() && a.view != ViewHelp {
		a.previousView = a.view
	}
	a.view = view
}

func (kh *KeyHandler) enterRecent() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.view == ViewRecent {
		return a, nil
	}
	kh.enter(ViewRecent)
	a.recentInput.Reset()
	a.setStatus("", StatusInfo)
	return a, a.loadRecent()
}

// delegateToCharm lets Charm handle all keys we don't intercept.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewCharacters:
		a.characters.list, cmd = a.characters.list.Update(msg)
		if a.characters.maybePrefetch() {
			return a, tea.Batch(cmd, a.startSpinner())
		}
		return a, cmd

	case ViewLocations:
		a.locations.list, cmd = a.locations.list.Update(msg)
		if a.locations.maybePrefetch() {
			return a, tea.Batch(cmd, a.startSpinner())
		}
		return a, cmd

	case ViewRecent:
		a.recentList, cmd = a.recentList.Update(msg)
		return a, cmd

	case ViewCharacterDetail, ViewLocationDetail:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	a.err = nil

	switch a.view {
	case ViewCharacterDetail, ViewLocationDetail, ViewHelp, ViewRecent:
		back := a.previousView
		if back == a.view || back.isDetail() {
			back = a.listView
		}
		a.view = back
		a.current = nil
		a.rendering = false
		a.setStatus("", StatusInfo)
	}
	return a, nil
}

func (kh *KeyHandler) quit() (tea.Model, tea.Cmd) {
	kh.app.Close()
	return kh.app, tea.Quit
}

// GetHelpForCurrentView lists the hints shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	k := kh.keys
	hint := func(b key.Binding) string {
		h := b.Help()
		return h.Key + ": " + h.Desc
	}

	if kh.isInTextInputMode() {
		return []string{"enter/↓: results", "esc: leave search"}
	}

	switch kh.app.view {
	case ViewCharacters:
		return []string{hint(k.Search), hint(k.SwitchTab), hint(k.Open), hint(k.OpenImage), hint(k.Refresh), hint(k.Help), hint(k.Quit)}
	case ViewLocations:
		return []string{hint(k.Search), hint(k.SwitchTab), hint(k.Open), hint(k.Refresh), hint(k.Help), hint(k.Quit)}
	case ViewCharacterDetail:
		return []string{"↑/↓: scroll", hint(k.OpenImage), hint(k.Back)}
	case ViewLocationDetail:
		return []string{"↑/↓: scroll", hint(k.Back)}
	case ViewRecent:
		return []string{hint(k.Search), hint(k.Open), hint(k.ClearRecent), hint(k.Back)}
	case ViewHelp:
		return []string{hint(k.Back), hint(k.Quit)}
	}
	return nil
}
