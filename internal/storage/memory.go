package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store and RunRecorder in process memory.
// Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	runs []RunRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Init() error { return nil }

func (m *MemoryStore) Close() error { return nil }

// Get returns a copy of the value stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (m *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// RecordRun appends run to the history.
func (m *MemoryStore) RecordRun(run RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, run)
	return nil
}

// GetRunHistory returns runs since a given time, newest first.
func (m *MemoryStore) GetRunHistory(since time.Time, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := []RunRecord{}
	for _, r := range m.runs {
		if !r.Timestamp.Before(since) {
			runs = append(runs, r)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Cleanup drops runs older than the retention period.
func (m *MemoryStore) Cleanup(retention time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	kept := m.runs[:0]
	for _, r := range m.runs {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	m.runs = kept
	return nil
}
