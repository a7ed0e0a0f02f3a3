package learning

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/knowledge"
	"github.com/khanglvm/tracklens/internal/storage"
)

// failingStore accepts nothing.
type failingStore struct{}

func (failingStore) Init() error  { return nil }
func (failingStore) Close() error { return nil }
func (failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, storage.ErrNotFound
}
func (failingStore) Put(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

func newTestLoop(t *testing.T, store storage.Store) (*Loop, *knowledge.Repository) {
	t.Helper()

	repo, err := knowledge.NewRepository(store, knowledge.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewLoop(repo, nil), repo
}

func bannerFeedback(id string) analysis.Feedback {
	return analysis.Feedback{
		AnalysisID: id,
		CorrectedEvents: []analysis.Event{{
			Name:     "bannerClicked",
			Category: analysis.CategoryUserAction,
			Properties: []analysis.Property{
				{Name: "bannerId", Type: "str"},
			},
		}},
		Comments:   "clk was too terse",
		Confidence: 0.9,
		Improvements: analysis.Improvements{
			EventNameChanges: map[string]string{"clk": "bannerClicked"},
		},
	}
}

func TestIngestTwoFeedbacks(t *testing.T) {
	store := storage.NewMemoryStore()
	loop, repo := newTestLoop(t, store)
	ctx := context.Background()

	if err := loop.Ingest(ctx, bannerFeedback("a1")); err != nil {
		t.Fatalf("first Ingest failed: %v", err)
	}
	before, _ := repo.Pattern("user_action")

	if err := loop.Ingest(ctx, bannerFeedback("a2")); err != nil {
		t.Fatalf("second Ingest failed: %v", err)
	}
	after, ok := repo.Pattern("user_action")
	if !ok {
		t.Fatal("expected user_action pattern")
	}

	if after.UsageCount != 2 {
		t.Errorf("expected usage count 2, got %d", after.UsageCount)
	}
	if got := after.ConfidenceScore - before.ConfidenceScore; math.Abs(got-0.1) > 1e-9 {
		t.Errorf("expected second feedback to add 0.1, got %v", got)
	}
	if math.Abs(after.ConfidenceScore-(knowledge.InitialPatternConfidence+0.2)) > 1e-9 {
		t.Errorf("expected confidence %v, got %v", knowledge.InitialPatternConfidence+0.2, after.ConfidenceScore)
	}
	if len(after.CommonEvents) != 1 || after.CommonEvents[0] != "bannerClicked" {
		t.Errorf("expected common events [bannerClicked], got %v", after.CommonEvents)
	}
	if len(after.SuccessfulProperties) != 1 || after.SuccessfulProperties[0].Type != analysis.TypeString {
		t.Errorf("expected one normalized string property, got %+v", after.SuccessfulProperties)
	}

	item, ok := repo.KnowledgeItem("event_naming:clk")
	if !ok {
		t.Fatal("expected event_naming item for clk")
	}
	if item.Category != analysis.KnowledgeEventNaming || item.Examples[0]["to"] != "bannerClicked" {
		t.Errorf("unexpected knowledge item %+v", item)
	}

	snap, found, err := storage.LoadSnapshot(ctx, store, storage.DefaultNamespace)
	if err != nil || !found {
		t.Fatalf("expected persisted snapshot, found=%v err=%v", found, err)
	}
	if len(snap.Feedback) != 2 || len(snap.Patterns) != 1 {
		t.Errorf("expected 2 feedback and 1 pattern persisted, got %d and %d", len(snap.Feedback), len(snap.Patterns))
	}
}

func TestIngestReinforcementProperty(t *testing.T) {
	faker := gofakeit.New(42)

	for trial := 0; trial < 20; trial++ {
		loop, repo := newTestLoop(t, nil)
		n := faker.IntRange(1, 12)
		name := faker.Noun() + "Tapped"

		for i := 0; i < n; i++ {
			fb := analysis.Feedback{
				AnalysisID:      faker.UUID(),
				CorrectedEvents: []analysis.Event{{Name: name, Category: analysis.CategorySystemEvent}},
				Comments:        faker.Sentence(6),
				Confidence:      faker.Float64Range(0, 1),
			}
			if err := loop.Ingest(context.Background(), fb); err != nil {
				t.Fatalf("Ingest failed: %v", err)
			}
		}

		p, ok := repo.Pattern("system_event")
		if !ok {
			t.Fatal("expected system_event pattern")
		}
		want := math.Min(1, knowledge.InitialPatternConfidence+0.1*float64(n))
		if math.Abs(p.ConfidenceScore-want) > 1e-9 {
			t.Errorf("n=%d: expected confidence %v, got %v", n, want, p.ConfidenceScore)
		}
		if p.UsageCount != n {
			t.Errorf("n=%d: expected usage count %d, got %d", n, n, p.UsageCount)
		}
	}
}

func TestIngestRejectsMalformed(t *testing.T) {
	loop, repo := newTestLoop(t, nil)

	tests := []struct {
		name string
		fb   analysis.Feedback
	}{
		{"missing analysis id", analysis.Feedback{Confidence: 0.5}},
		{"confidence out of range", analysis.Feedback{AnalysisID: "a", Confidence: 1.5}},
		{"unnamed event", analysis.Feedback{AnalysisID: "a", CorrectedEvents: []analysis.Event{{}}}},
		{"unknown category", analysis.Feedback{AnalysisID: "a", CorrectedEvents: []analysis.Event{{Name: "x", Category: "gesture"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loop.Ingest(context.Background(), tt.fb)
			if !errors.Is(err, analysis.ErrMalformedFeedback) {
				t.Fatalf("expected ErrMalformedFeedback, got %v", err)
			}
			var ve *analysis.ValidationError
			if !errors.As(err, &ve) || ve.Field == "" {
				t.Errorf("expected ValidationError naming the field, got %v", err)
			}
		})
	}

	if len(repo.Patterns()) != 0 || len(repo.Feedback()) != 0 {
		t.Error("expected rejected feedback to leave the repository untouched")
	}
}

func TestIngestCategoryCorrection(t *testing.T) {
	loop, repo := newTestLoop(t, nil)

	fb := analysis.Feedback{
		AnalysisID:      "a1",
		CorrectedEvents: []analysis.Event{{Name: "homeViewed", Category: analysis.CategoryUserAction}},
		Improvements: analysis.Improvements{
			CategoryCorrections: map[string]string{"homeViewed": "screen_view"},
		},
	}
	if err := loop.Ingest(context.Background(), fb); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if _, ok := repo.Pattern("user_action"); ok {
		t.Error("expected corrected category to be used instead of user_action")
	}
	if p, ok := repo.Pattern("screen_view"); !ok || !p.HasEvent("homeViewed") {
		t.Error("expected homeViewed under screen_view")
	}
}

func TestIngestPropertyCorrections(t *testing.T) {
	loop, repo := newTestLoop(t, nil)

	fb := analysis.Feedback{
		AnalysisID: "a1",
		Improvements: analysis.Improvements{
			PropertyCorrections: map[string]string{"prod_id": "productId"},
		},
	}
	if err := loop.Ingest(context.Background(), fb); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	item, ok := repo.KnowledgeItem("property_naming:prod_id")
	if !ok {
		t.Fatal("expected property_naming item")
	}
	if item.Category != analysis.KnowledgePropertyTypes || item.Confidence != 0.85 {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestIngestSwallowsPersistenceFailure(t *testing.T) {
	loop, repo := newTestLoop(t, failingStore{})

	if err := loop.Ingest(context.Background(), bannerFeedback("a1")); err != nil {
		t.Fatalf("expected persistence failure to be swallowed, got %v", err)
	}
	if _, ok := repo.Pattern("user_action"); !ok {
		t.Error("expected in-memory state to be updated")
	}
	if len(repo.Feedback()) != 1 {
		t.Errorf("expected 1 feedback in memory, got %d", len(repo.Feedback()))
	}
}

func TestIngestConcurrent(t *testing.T) {
	loop, repo := newTestLoop(t, nil)

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fb := bannerFeedback(gofakeit.UUID())
			if err := loop.Ingest(context.Background(), fb); err != nil {
				t.Errorf("Ingest failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	p, _ := repo.Pattern("user_action")
	if p.UsageCount != workers {
		t.Errorf("expected no lost updates: usage count %d, got %d", workers, p.UsageCount)
	}
	if len(repo.Feedback()) != workers {
		t.Errorf("expected %d feedback, got %d", workers, len(repo.Feedback()))
	}
}

func TestSubmitProcessesQueue(t *testing.T) {
	loop, repo := newTestLoop(t, nil)
	loop.Start()

	for i := 0; i < 10; i++ {
		if err := loop.Submit(bannerFeedback(gofakeit.UUID())); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	loop.Stop()

	processed, failed := loop.Stats()
	if processed != 10 || failed != 0 {
		t.Errorf("expected 10 processed and 0 failed, got %d and %d", processed, failed)
	}
	if p, _ := repo.Pattern("user_action"); p.UsageCount != 10 {
		t.Errorf("expected usage count 10, got %d", p.UsageCount)
	}
	if loop.Pending() != 0 {
		t.Errorf("expected empty queue after Stop, got %d", loop.Pending())
	}
}

func TestSubmitValidatesAndRespectsLifecycle(t *testing.T) {
	loop, _ := newTestLoop(t, nil)

	if err := loop.Submit(bannerFeedback("a1")); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped before Start, got %v", err)
	}

	loop.Start()
	if err := loop.Submit(analysis.Feedback{}); !errors.Is(err, analysis.ErrMalformedFeedback) {
		t.Errorf("expected ErrMalformedFeedback, got %v", err)
	}

	loop.Stop()
	loop.Stop()
	if err := loop.Submit(bannerFeedback("a2")); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after Stop, got %v", err)
	}
}

func TestIngestUsesClock(t *testing.T) {
	loop, repo := newTestLoop(t, nil)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	loop.now = func() time.Time { return fixed }

	if err := loop.Ingest(context.Background(), bannerFeedback("a1")); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	p, _ := repo.Pattern("user_action")
	if !p.LastUsed.Equal(fixed) {
		t.Errorf("expected LastUsed %v, got %v", fixed, p.LastUsed)
	}
	if fb := repo.Feedback(); !fb[0].Timestamp.Equal(fixed) {
		t.Errorf("expected missing timestamp filled with %v, got %v", fixed, fb[0].Timestamp)
	}
}

func TestIngestIsolatesStoredFeedback(t *testing.T) {
	loop, repo := newTestLoop(t, nil)

	fb := bannerFeedback("a1")
	fb.CorrectedEvents[0].Triggers = []string{"tap"}
	fb.CorrectedEvents[0].Properties[0].Example = map[string]any{"id": "b-1"}
	if err := loop.Ingest(context.Background(), fb); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	fb.Improvements.EventNameChanges["clk"] = "changed"
	fb.Improvements.EventNameChanges["new"] = "injected"
	fb.CorrectedEvents[0].Triggers[0] = "changed"
	fb.CorrectedEvents[0].Properties[0].Example.(map[string]any)["id"] = "changed"

	stored := repo.Feedback()[0]
	if got := stored.Improvements.EventNameChanges; len(got) != 1 || got["clk"] != "bannerClicked" {
		t.Errorf("expected stored name changes untouched, got %v", got)
	}
	if got := stored.CorrectedEvents[0].Triggers; got[0] != "tap" {
		t.Errorf("expected stored triggers untouched, got %v", got)
	}
	if got := stored.CorrectedEvents[0].Properties[0].Example.(map[string]any)["id"]; got != "b-1" {
		t.Errorf("expected stored example untouched, got %v", got)
	}

	stored.Improvements.EventNameChanges["clk"] = "changed"
	if again := repo.Feedback()[0]; again.Improvements.EventNameChanges["clk"] != "bannerClicked" {
		t.Error("expected Feedback to return copies")
	}
}
