package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/storage"
)

type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes
// the stored history.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		idx.Close()
		return nil, err
	}
	return be, nil
}

// New prefers the Bleve index and falls back to the scanning Engine when
// the index cannot be opened.
func New(store *storage.Store, indexPath string) Searcher {
	if indexPath != "" {
		be, err := NewBleveEngine(store, indexPath)
		if err == nil {
			return be
		}
		debuglog.Warnf("bleve index unavailable, using basic search: %v", err)
	}
	return NewEngine(store)
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	subtitle := bleve.NewTextFieldMapping()
	subtitle.Analyzer = standard.Name
	subtitle.Store = true

	details := bleve.NewTextFieldMapping()
	details.Analyzer = standard.Name
	details.Store = false

	kind := bleve.NewKeywordFieldMapping()
	kind.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("subtitle", subtitle)
	dm.AddFieldMappingsAt("details", details)
	dm.AddFieldMappingsAt("kind", kind)

	im.DefaultMapping = dm
	return im
}

func document(r *storage.Recent) map[string]any {
	return map[string]any{
		"kind":     string(r.Kind),
		"title":    r.Title,
		"subtitle": r.Subtitle,
		"details":  r.Details,
	}
}

func (b *BleveEngine) reindexAll() error {
	recents, err := b.store.GetRecent(0)
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, r := range recents {
		if err := batch.Index(r.Key, document(r)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

// Index adds or replaces r in the index.
func (b *BleveEngine) Index(r *storage.Recent) error {
	return b.idx.Index(r.Key, document(r))
}

func (b *BleveEngine) Remove(key string) error {
	return b.idx.Delete(key)
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len([]rune(strings.TrimSpace(query))) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	boosts := []struct {
		field  string
		match  float64
		prefix float64
	}{
		{"title", 4.0, 3.5},
		{"subtitle", 2.0, 1.8},
		{"details", 1.0, 0.8},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range boosts {
			m := bleve.NewMatchQuery(tok)
			m.SetField(f.field)
			m.SetBoost(f.match)
			qs = append(qs, m)

			p := bleve.NewPrefixQuery(tok)
			p.SetField(f.field)
			p.SetBoost(f.prefix)
			qs = append(qs, p)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "subtitle", "kind"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r, err := b.store.GetRecentByKey(h.ID)
		if err != nil {
			// Entry cleared from the store but still indexed.
			_ = b.idx.Delete(h.ID)
			continue
		}
		var matches []Match
		if t, ok := h.Fields["title"].(string); ok && t != "" {
			matches = append(matches, Match{Field: "title", Text: t})
		}
		out = append(out, &Result{Recent: r, Score: h.Score, Matches: matches})
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
