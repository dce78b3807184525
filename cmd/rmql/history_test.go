package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/rmql/internal/search"
	"github.com/pders01/rmql/internal/storage"
)

type recordingIndex struct {
	removed []string
}

func (r *recordingIndex) Search(string, int) ([]*search.Result, error) { return nil, nil }
func (r *recordingIndex) Index(*storage.Recent) error                  { return nil }
func (r *recordingIndex) Remove(key string) error {
	r.removed = append(r.removed, key)
	return nil
}

func TestPrepareHistory(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	idx := &recordingIndex{}
	const official = "https://rickandmortyapi.com/graphql"

	require.NoError(t, prepareHistory(store, idx, official))
	v, err := store.GetMeta(endpointMetaKey)
	require.NoError(t, err)
	assert.Equal(t, official, v)

	require.NoError(t, store.SaveRecent(&storage.Recent{Key: "character:1", Kind: storage.KindCharacter, Title: "Rick Sanchez"}))

	// Same endpoint keeps history.
	require.NoError(t, prepareHistory(store, idx, official))
	entries, err := store.GetRecent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, idx.removed)

	// A different endpoint drops it, index included.
	require.NoError(t, prepareHistory(store, idx, "http://127.0.0.1:4000/graphql"))
	entries, err = store.GetRecent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []string{"character:1"}, idx.removed)

	v, err = store.GetMeta(endpointMetaKey)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:4000/graphql", v)
}
