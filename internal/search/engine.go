package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/rmql/internal/storage"
)

// Engine scores history entries directly from the store without an index.
type Engine struct {
	store *storage.Store
	now   func() time.Time
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Search ranks every stored entry against query.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len([]rune(strings.TrimSpace(query))) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	recents, err := e.store.GetRecent(0)
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, r := range recents {
		if res := e.searchRecent(r, terms); res != nil {
			results = append(results, res)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchRecent(r *storage.Recent, terms []string) *Result {
	var matches []Match
	var total float64

	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"title", r.Title, 4.0},
		{"subtitle", r.Subtitle, 2.0},
		{"details", r.Details, 1.0},
	}
	for _, f := range fields {
		score := scoreField(f.text, terms, f.weight)
		if score <= 0 {
			continue
		}
		text := f.text
		if f.name == "details" {
			text = findBestSnippet(f.text, terms, 200)
		}
		matches = append(matches, Match{Field: f.name, Text: text, Weight: score})
		total += score
	}

	if total <= 0 {
		return nil
	}
	total *= 1.0 + recencyBoost(r.OpenedAt, e.now())
	return &Result{Recent: r, Score: total, Matches: matches}
}

func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matched++
			case strings.Contains(word, term):
				score += 0.5
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}

	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)
	return score * weight
}

// findBestSnippet returns the window of text with the most term hits.
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	window := maxLength / 8
	if window > len(words) {
		return truncate(text, maxLength)
	}

	best, bestStart := 0, 0
	for i := 0; i <= len(words)-window; i++ {
		chunk := strings.ToLower(strings.Join(words[i:i+window], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(chunk, term) {
				score++
			}
		}
		if score > best {
			best, bestStart = score, i
		}
	}
	return truncate(strings.Join(words[bestStart:bestStart+window], " "), maxLength)
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, skipping single runes.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder
	n := 0

	flush := func() {
		if n > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
		n = 0
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			n++
		} else {
			flush()
		}
	}
	flush()
	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}

// recencyBoost gives up to 10% to entries opened within the last week.
func recencyBoost(opened, now time.Time) float64 {
	if opened.IsZero() {
		return 0
	}
	age := now.Sub(opened)
	week := 7 * 24 * time.Hour
	if age < 0 {
		age = 0
	}
	if age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}
