/*
Package storage implements the persistence port for learned state.

The learning snapshot ({feedback, patterns, timestamp}) is a single JSON
document stored under one namespace key in a key-value Store. Four drivers
exist: SQLite (default, pure Go via modernc.org/sqlite), Badger, Redis and an
in-memory map. The SQLite and memory drivers also keep analysis run history.

Stores degrade gracefully: a SQLite database that cannot be opened disables
the store, and further operations become no-ops rather than failures.
*/
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// DefaultNamespace is the key the learning snapshot is stored under.
const DefaultNamespace = "tracklens:learning"

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// Store defines the key-value operations the learning snapshot needs.
type Store interface {
	// Init opens the underlying database.
	Init() error

	// Get returns the value under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the underlying database.
	Close() error
}

// RunRecorder is implemented by stores that keep analysis run history.
type RunRecorder interface {
	// RecordRun appends one analysis run.
	RecordRun(run RunRecord) error

	// GetRunHistory returns runs since a given time, newest first.
	// A limit <= 0 returns all of them.
	GetRunHistory(since time.Time, limit int) ([]RunRecord, error)

	// Cleanup removes runs older than the retention period.
	Cleanup(retention time.Duration) error
}

// Snapshot is the persisted learning state.
type Snapshot struct {
	Feedback  []analysis.Feedback `json:"feedback"`
	Patterns  []analysis.Pattern  `json:"patterns"`
	Timestamp time.Time           `json:"timestamp"`
}

// SaveSnapshot serializes snap and overwrites key with it.
func SaveSnapshot(ctx context.Context, s Store, key string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot under key. The boolean is false when no
// snapshot has been written yet.
func LoadSnapshot(ctx context.Context, s Store, key string) (Snapshot, bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, true, nil
}

// HashQuery creates a SHA256 hash of free text so run history never stores
// caller instructions verbatim.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:])
}
