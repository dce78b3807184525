package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const schemaVersion = "1"

var (
	recentBucket  = []byte("recent")
	historyBucket = []byte("history")
	metaBucket    = []byte("metadata")

	schemaKey = []byte("schema_version")
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, time.Second)
}

// NewStoreWithTimeout waits up to timeout for the file lock held by another
// rmql process.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{recentBucket, historyBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		meta := tx.Bucket(metaBucket)
		if v := meta.Get(schemaKey); v != nil && string(v) != schemaVersion {
			return fmt.Errorf("unsupported schema version %q", v)
		}
		return meta.Put(schemaKey, []byte(schemaVersion))
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.db.Path()
}

// SaveRecent upserts r, bumping its open count and timestamp.
func (s *Store) SaveRecent(r *Recent) error {
	if r.Key == "" {
		return fmt.Errorf("recent entry has no key")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recentBucket)

		opens := 0
		if data := b.Get([]byte(r.Key)); data != nil {
			var prev Recent
			if err := json.Unmarshal(data, &prev); err == nil {
				opens = prev.Opens
			}
		}
		r.Opens = opens + 1
		if r.OpenedAt.IsZero() {
			r.OpenedAt = s.now()
		}

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put([]byte(r.Key), data)
	})
}

func (s *Store) GetRecentByKey(key string) (*Recent, error) {
	var r Recent
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(recentBucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("recent %s: %w", key, ErrNotFound)
		}
		return json.Unmarshal(data, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecent returns entries newest first. limit <= 0 returns all.
func (s *Store) GetRecent(limit int) ([]*Recent, error) {
	var recents []*Recent
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recentBucket).ForEach(func(_ []byte, v []byte) error {
			var r Recent
			if err := json.Unmarshal(v, &r); err != nil {
				return nil
			}
			recents = append(recents, &r)
			return nil
		})
	})
	sort.Slice(recents, func(i, j int) bool {
		if recents[i].OpenedAt.Equal(recents[j].OpenedAt) {
			return recents[i].Key < recents[j].Key
		}
		return recents[i].OpenedAt.After(recents[j].OpenedAt)
	})
	if limit > 0 && len(recents) > limit {
		recents = recents[:limit]
	}
	return recents, err
}

func (s *Store) DeleteRecent(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recentBucket).Delete([]byte(key))
	})
}

func (s *Store) ClearRecent() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(recentBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(recentBucket)
		return err
	})
}

// AddQuery records q at the front of list's history, dropping duplicates
// (case-insensitive) and trimming to max entries.
func (s *Store) AddQuery(list, q string, max int) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)

		h := QueryHistory{List: list}
		if data := b.Get([]byte(list)); data != nil {
			if err := json.Unmarshal(data, &h); err != nil {
				return fmt.Errorf("decoding history for %s: %w", list, err)
			}
		}

		queries := []string{q}
		for _, prev := range h.Queries {
			if !strings.EqualFold(prev, q) {
				queries = append(queries, prev)
			}
		}
		if max > 0 && len(queries) > max {
			queries = queries[:max]
		}
		h.Queries = queries
		h.UpdatedAt = s.now()

		data, err := json.Marshal(h)
		if err != nil {
			return err
		}
		return b.Put([]byte(list), data)
	})
}

func (s *Store) GetQueries(list string) ([]string, error) {
	var h QueryHistory
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(historyBucket).Get([]byte(list))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &h)
	})
	return h.Queries, err
}

func (s *Store) SetMeta(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), []byte(value))
	})
}

func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(metaBucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("meta %s: %w", key, ErrNotFound)
		}
		value = string(v)
		return nil
	})
	return value, err
}
