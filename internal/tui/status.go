package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading…"
	MsgRefreshing     = "Refreshing…"
	MsgRetrying       = "Retrying…"
	MsgRendering      = "Rendering…"
	MsgNoResults      = "No results"
	MsgRecentCleared  = "History cleared"
	MsgNoImage        = "No image for this entry"
	MsgNothingToRetry = "Nothing to retry"
)

func MsgLoadingPage(page int) string {
	if page <= 1 {
		return MsgLoading
	}
	return fmt.Sprintf("Loading page %d…", page)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgListSummary describes how much of a list is on screen.
func MsgListSummary(shown, total int, filter string) string {
	base := fmt.Sprintf("%d of %d", shown, total)
	if f := strings.TrimSpace(filter); f != "" {
		base += fmt.Sprintf(" • name: %q", f)
	}
	return base
}

func MsgOpened(target string) string {
	return "Opened " + truncateMiddle(target, 48)
}
