package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/rmql/internal/config"
)

const AppName = "rmql"

// LogoLines is the block-letter wordmark.
var LogoLines = []string{
	"▄▄▄▄  ▄▄   ▄▄  ▄▄▄▄   ▄",
	"█▄▄▀  █ ▀▄▀ █ █    █  █",
	"█  ▀▄ █     █  ▀▄▄█▄  █▄▄▄",
}

const CompactLogo = `rmql ›`

// Portal green through to the citadel blue.
var (
	PrimaryColor   = lipgloss.Color("#97CE4C")
	SecondaryColor = lipgloss.Color("#44B5D0")
	AccentColor    = lipgloss.Color("#F0E14A")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
)

var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	StatusBarStyle     lipgloss.Style
	HelpStyle          lipgloss.Style
	SeparatorStyle     lipgloss.Style
	ErrorMessageStyle  lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

func init() { buildStyles() }

// ApplyTheme replaces the palette with the configured colors. Empty entries keep the default.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)

	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(AccentColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

// GetCompactBanner renders the logo with an optional line underneath.
func GetCompactBanner(message string) string {
	rows := make([]string, 0, len(LogoLines)+2)
	for _, line := range LogoLines {
		rows = append(rows, LogoStyle.Render(line))
	}
	if message != "" {
		rows = append(rows, "", HelpStyle.Render(message))
	}
	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}

// ShowBanner prints the startup banner to w.
func ShowBanner(w io.Writer, version string) {
	tagline := "Rick and Morty GraphQL browser"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}

	gradient := []lipgloss.Color{PrimaryColor, SecondaryColor, AccentColor}
	rows := make([]string, 0, len(LogoLines)+2)
	for i, line := range LogoLines {
		rows = append(rows, lipgloss.NewStyle().
			Foreground(gradient[i%len(gradient)]).
			Bold(true).
			Render(line))
	}
	rows = append(rows, "", lipgloss.NewStyle().Foreground(TextColor).Render(tagline))

	frame := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	center := lipgloss.NewStyle().Width(60).Align(lipgloss.Center)
	fmt.Fprintln(w, center.Render(frame.Render(lipgloss.JoinVertical(lipgloss.Center, rows...))))
	fmt.Fprintln(w, center.MarginBottom(1).Render(
		lipgloss.NewStyle().Foreground(PrimaryColor).Render("◉ ◎ ◉ ◎ ◉")))
}
