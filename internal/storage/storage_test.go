package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/khanglvm/tracklens/internal/analysis"
)

func newTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()

	s := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"), nil)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestInit verifies database initialization and schema creation.
func TestInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s := NewSQLiteStorage(dbPath, nil)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}
	if !s.Enabled() {
		t.Error("expected storage to be enabled")
	}
}

func TestSQLite_GetMissing(t *testing.T) {
	s := newTestSQLite(t)

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_PutOverwrites(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("expected 'two', got %q", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	stores := map[string]Store{
		"sqlite": newTestSQLite(t),
		"memory": NewMemoryStore(),
		"badger": NewBadgerStore(""),
	}

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Feedback: []analysis.Feedback{{AnalysisID: "a1", Confidence: 0.9, Comments: "good", Timestamp: now}},
		Patterns: []analysis.Pattern{{ID: "p1", ScreenType: "user_action", CommonEvents: []string{"bannerClicked"}, ConfidenceScore: 0.6, UsageCount: 1, LastUsed: now}},
		Timestamp: now,
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			if err := s.Init(); err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			defer s.Close()
			ctx := context.Background()

			if _, ok, err := LoadSnapshot(ctx, s, DefaultNamespace); err != nil || ok {
				t.Fatalf("expected no snapshot yet, got ok=%v err=%v", ok, err)
			}
			if err := SaveSnapshot(ctx, s, DefaultNamespace, snap); err != nil {
				t.Fatalf("SaveSnapshot failed: %v", err)
			}

			got, ok, err := LoadSnapshot(ctx, s, DefaultNamespace)
			if err != nil || !ok {
				t.Fatalf("LoadSnapshot failed: ok=%v err=%v", ok, err)
			}
			if len(got.Feedback) != 1 || got.Feedback[0].AnalysisID != "a1" {
				t.Errorf("feedback not restored: %+v", got.Feedback)
			}
			if len(got.Patterns) != 1 || got.Patterns[0].ConfidenceScore != 0.6 {
				t.Errorf("patterns not restored: %+v", got.Patterns)
			}
			if !got.Timestamp.Equal(now) {
				t.Errorf("expected timestamp %v, got %v", now, got.Timestamp)
			}
		})
	}
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Put(ctx, DefaultNamespace, []byte("{not json"))

	if _, _, err := LoadSnapshot(ctx, s, DefaultNamespace); err == nil {
		t.Error("expected decode error")
	}
}

func TestSQLite_RunHistory(t *testing.T) {
	s := newTestSQLite(t)
	now := time.Now()

	runs := []RunRecord{
		{ID: "r1", Provider: "openai", Model: "gpt-4o", Outcome: OutcomeOK, EventCount: 4, Confidence: 0.9, Duration: 1500 * time.Millisecond, Timestamp: now.Add(-2 * time.Minute)},
		{ID: "r2", Outcome: OutcomeNoBackend, EventCount: 6, Confidence: 0.88, Timestamp: now.Add(-time.Minute)},
		{ID: "old", Outcome: OutcomeOK, Timestamp: now.Add(-48 * time.Hour)},
	}
	for _, r := range runs {
		if err := s.RecordRun(r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	history, err := s.GetRunHistory(now.Add(-time.Hour), 0)
	if err != nil {
		t.Fatalf("GetRunHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(history))
	}
	if history[0].ID != "r2" {
		t.Errorf("expected newest first, got %s", history[0].ID)
	}
	if history[1].Duration != 1500*time.Millisecond {
		t.Errorf("expected duration 1.5s, got %v", history[1].Duration)
	}
	if !history[0].Degraded() || history[1].Degraded() {
		t.Error("unexpected Degraded values")
	}

	limited, _ := s.GetRunHistory(time.Time{}, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}

	if err := s.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	all, _ := s.GetRunHistory(time.Time{}, 0)
	if len(all) != 2 {
		t.Errorf("expected cleanup to drop the old run, got %d runs", len(all))
	}
}

func TestMemoryStore_RunHistory(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()

	s.RecordRun(RunRecord{ID: "a", Timestamp: now.Add(-time.Minute)})
	s.RecordRun(RunRecord{ID: "b", Timestamp: now})
	s.RecordRun(RunRecord{ID: "old", Timestamp: now.Add(-72 * time.Hour)})

	history, _ := s.GetRunHistory(now.Add(-time.Hour), 0)
	if len(history) != 2 || history[0].ID != "b" {
		t.Errorf("unexpected history %+v", history)
	}

	s.Cleanup(24 * time.Hour)
	all, _ := s.GetRunHistory(time.Time{}, 0)
	if len(all) != 2 {
		t.Errorf("expected 2 runs after cleanup, got %d", len(all))
	}
}

// TestGracefulDegradation verifies behavior when the DB is unavailable.
func TestGracefulDegradation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewSQLiteStorage(filepath.Join(blocker, "sub", "test.db"), nil)
	if err := s.Init(); err == nil {
		t.Fatal("expected Init to fail")
	}
	if s.Enabled() {
		t.Error("expected storage to be disabled")
	}

	ctx := context.Background()
	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Errorf("Put should be a no-op on disabled storage, got: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on disabled storage, got %v", err)
	}
	if err := s.RecordRun(RunRecord{ID: "r"}); err != nil {
		t.Errorf("RecordRun should return nil on disabled storage, got: %v", err)
	}
	history, err := s.GetRunHistory(time.Time{}, 0)
	if err != nil || len(history) != 0 {
		t.Errorf("expected empty history on disabled storage, got %d, %v", len(history), err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{Driver: DriverMemory}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := s.(RunRecorder); !ok {
		t.Error("expected memory store to record runs")
	}

	s, err = Open(Options{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "x.db")}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStorage); !ok {
		t.Errorf("expected *SQLiteStorage, got %T", s)
	}

	if _, err := Open(Options{Driver: "cassandra"}, nil); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestBadgerStore_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	s := NewBadgerStore(dir)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.Close()

	reopened := NewBadgerStore(dir)
	if err := reopened.Init(); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("expected persisted value, got %q, %v", got, err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TRACKLENS_TEST_REDIS")
	if addr == "" {
		t.Skip("TRACKLENS_TEST_REDIS not set")
	}

	s := NewRedisStore(RedisOptions{Addr: addr})
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	key := "tracklens:test:" + time.Now().Format("150405.000000")
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, key, []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got, err := s.Get(ctx, key); err != nil || string(got) != "v" {
		t.Errorf("expected v, got %q, %v", got, err)
	}
}

// TestHashQuery verifies query hashing consistency.
func TestHashQuery(t *testing.T) {
	hash1 := HashQuery("test query for hashing")
	hash2 := HashQuery("test query for hashing")

	if hash1 != hash2 {
		t.Error("HashQuery produced inconsistent results")
	}
	if len(hash1) != 64 {
		t.Errorf("Expected hash length 64, got %d", len(hash1))
	}
}
