package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/rmql/internal/config"
)

// keyMap holds the configurable bindings. Action keys are chorded with the
// configured modifier, navigation keys are plain.
type keyMap struct {
	Quit        key.Binding
	Search      key.Binding
	Refresh     key.Binding
	Retry       key.Binding
	SwitchTab   key.Binding
	Recent      key.Binding
	ClearRecent key.Binding
	OpenImage   key.Binding
	Open        key.Binding
	Back        key.Binding
	Help        key.Binding
	Navigate    key.Binding
}

func newKeyMap(cfg config.KeyConfig) keyMap {
	mod := strings.TrimSpace(cfg.Modifier)
	if mod == "" {
		mod = "ctrl"
	}
	chord := func(k string) string { return mod + "+" + k }
	b := cfg.Bindings

	return keyMap{
		Quit:        key.NewBinding(key.WithKeys(b.Quit, "ctrl+c"), key.WithHelp(b.Quit, "quit")),
		Search:      key.NewBinding(key.WithKeys(chord(b.Search), "/"), key.WithHelp("/", "search")),
		Refresh:     key.NewBinding(key.WithKeys(chord(b.Refresh)), key.WithHelp(chord(b.Refresh), "refresh")),
		Retry:       key.NewBinding(key.WithKeys(chord(b.Retry)), key.WithHelp(chord(b.Retry), "retry")),
		SwitchTab:   key.NewBinding(key.WithKeys(b.SwitchTab), key.WithHelp(b.SwitchTab, "characters/locations")),
		Recent:      key.NewBinding(key.WithKeys(chord(b.Recent)), key.WithHelp(chord(b.Recent), "recent")),
		ClearRecent: key.NewBinding(key.WithKeys(chord(b.ClearRecent)), key.WithHelp(chord(b.ClearRecent), "clear history")),
		OpenImage:   key.NewBinding(key.WithKeys(chord(b.OpenImage)), key.WithHelp(chord(b.OpenImage), "open image")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:        key.NewBinding(key.WithKeys(b.Back), key.WithHelp(b.Back, "back")),
		Help:        key.NewBinding(key.WithKeys(b.Help), key.WithHelp(b.Help, "help")),
		Navigate:    key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "move")),
	}
}

// ShortHelp satisfies help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.SwitchTab, k.Open, k.Recent, k.Help, k.Quit}
}

// FullHelp satisfies help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Navigate, k.Open, k.Back, k.SwitchTab},
		{k.Search, k.Refresh, k.Retry},
		{k.Recent, k.ClearRecent, k.OpenImage},
		{k.Help, k.Quit},
	}
}
