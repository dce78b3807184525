package main

import (
	"errors"
	"fmt"

	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/search"
	"github.com/pders01/rmql/internal/storage"
)

const endpointMetaKey = "endpoint"

// prepareHistory ties stored history to the configured endpoint. Entries
// recorded against a different API are dropped, since their ids no longer
// name the same characters and locations.
func prepareHistory(store *storage.Store, searcher search.Searcher, endpoint string) error {
	prev, err := store.GetMeta(endpointMetaKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("reading endpoint metadata: %w", err)
	case prev != endpoint:
		debuglog.Warnf("endpoint changed from %s to %s, clearing history", prev, endpoint)
		if err := clearHistory(store, searcher); err != nil {
			return err
		}
	}

	if err := store.SetMeta(endpointMetaKey, endpoint); err != nil {
		return fmt.Errorf("recording endpoint: %w", err)
	}

	if ds, ok := searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			debuglog.Infof("search index holds %d entries", n)
		}
	}
	return nil
}

func clearHistory(store *storage.Store, searcher search.Searcher) error {
	if ix, ok := searcher.(search.Indexer); ok {
		entries, err := store.GetRecent(0)
		if err != nil {
			return fmt.Errorf("listing history: %w", err)
		}
		for _, e := range entries {
			if err := ix.Remove(e.Key); err != nil {
				debuglog.Warnf("unindexing %s: %v", e.Key, err)
			}
		}
	}
	if err := store.ClearRecent(); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
