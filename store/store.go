// Package store keeps a history of completed root analyses in BadgerDB.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "analysis/"

// Analysis is one finished search from a root position.
type Analysis struct {
	FEN         string    `json:"fen"`
	Depth       int       `json:"depth"`
	Move        string    `json:"move"`
	Score       float64   `json:"score"`
	Status      string    `json:"status"`
	Nodes       int       `json:"nodes"`
	Interrupted bool      `json:"interrupted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps BadgerDB for persistent storage
type Store struct {
	db *badger.DB
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

// OpenInMemory returns a store that is discarded on Close.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open analysis store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func key(fen string, depth int) []byte {
	return []byte(fmt.Sprintf("%s%02d/%s", keyPrefix, depth, strings.TrimSpace(fen)))
}

// Save records a, replacing any earlier analysis of the same position and depth.
func (s *Store) Save(a Analysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(a.FEN, a.Depth), data)
	})
}

// Load returns the analysis of fen at depth, if one was saved.
func (s *Store) Load(fen string, depth int) (Analysis, bool, error) {
	var a Analysis
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(fen, depth))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		})
	})
	return a, found, err
}

// List returns every saved analysis ordered by depth, then position.
func (s *Store) List() ([]Analysis, error) {
	var out []Analysis
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var a Analysis
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			}); err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}

// Delete removes the analysis of fen at depth. Missing entries are not an error.
func (s *Store) Delete(fen string, depth int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(fen, depth))
	})
}
