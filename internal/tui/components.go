package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns a styled title with an optional muted subtitle on the same row.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	if subtitle == "" {
		return HeaderStyle.Render(title)
	}
	room := width - lipgloss.Width(title) - 5
	if room <= 0 {
		return HeaderStyle.Render(title)
	}
	return HeaderStyle.Render(title) + renderMuted("  · "+truncateEnd(subtitle, room))
}

// renderInputFrame draws a rounded border around an already-rendered input.
func renderInputFrame(inputView string, focused bool, width int) string {
	border := MutedColor
	if focused {
		border = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(width-2, 10)).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderLoader is the full-screen placeholder shown while a list has no rows yet.
func renderLoader(width, height int, spin, text string) string {
	return renderCentered(width, height, lipgloss.JoinVertical(
		lipgloss.Center,
		GetCompactBanner(""),
		"",
		spin+" "+renderMuted(text),
	))
}

func renderSeparator(width int) string {
	return SeparatorStyle.Render(strings.Repeat("─", max(width, 1)))
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}
