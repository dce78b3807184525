package search

import "github.com/pders01/rmql/internal/storage"

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Indexer is implemented by engines that keep their own index and need to
// hear about new or removed history entries.
type Indexer interface {
	Index(r *storage.Recent) error
	Remove(key string) error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// Result is one matching history entry.
type Result struct {
	Recent  *storage.Recent
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "subtitle", "details"
	Text   string
	Weight float64
}
