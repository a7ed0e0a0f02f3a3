package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store on an embedded Badger database.
type BadgerStore struct {
	path     string
	inMemory bool
	db       *badger.DB
}

// NewBadgerStore creates a store in directory path. An empty path keeps the
// database in memory.
func NewBadgerStore(path string) *BadgerStore {
	return &BadgerStore{path: path, inMemory: path == ""}
}

// Init opens the database.
func (s *BadgerStore) Init() error {
	if s.db != nil {
		return nil
	}

	opts := badger.DefaultOptions(s.path).
		WithLoggingLevel(badger.WARNING)
	if s.inMemory {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(s.path, 0755); err != nil {
		return fmt.Errorf("failed to create badger directory: %w", err)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	s.db = db
	return nil
}

// Get returns the value stored under key.
func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, ErrNotFound
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Put overwrites the value stored under key.
func (s *BadgerStore) Put(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return fmt.Errorf("badger store not initialized")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
