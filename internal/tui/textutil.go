package tui

import "strings"

const ellipsis = "…"

// truncateEnd shortens s to at most limit runes, ending in an ellipsis when cut.
func truncateEnd(s string, limit int) string {
	r := []rune(s)
	switch {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	case limit == 1:
		return ellipsis
	}
	return string(r[:limit-1]) + ellipsis
}

// truncateMiddle keeps both ends of s, which suits URLs and paths.
func truncateMiddle(s string, limit int) string {
	r := []rune(s)
	switch {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	case limit < 3:
		return truncateEnd(s, limit)
	}
	head := (limit - 1) / 2
	tail := limit - 1 - head
	return string(r[:head]) + ellipsis + string(r[len(r)-tail:])
}

// oneLine collapses whitespace runs so multi-line API messages fit a status bar.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clamp bounds n to [lo, hi].
func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
