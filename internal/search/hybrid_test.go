package search

import (
	"math"
	"testing"
)

func TestNormalizeScores_Empty(t *testing.T) {
	if normalized := normalizeScores([]Result{}); len(normalized) != 0 {
		t.Errorf("expected empty result, got %d items", len(normalized))
	}
}

func TestNormalizeScores_Single(t *testing.T) {
	normalized := normalizeScores([]Result{{ID: "a", Score: 0.5}})

	if len(normalized) != 1 {
		t.Fatalf("expected 1 result, got %d", len(normalized))
	}
	if normalized[0].Score != 1.0 {
		t.Errorf("expected score 1.0 for single result, got %f", normalized[0].Score)
	}
}

func TestNormalizeScores_Multiple(t *testing.T) {
	results := []Result{
		{ID: "a", Score: 2.0},
		{ID: "b", Score: 3.0},
		{ID: "c", Score: 4.0},
	}
	normalized := normalizeScores(results)

	want := []float64{0.0, 0.5, 1.0}
	for i, w := range want {
		if math.Abs(normalized[i].Score-w) > 0.001 {
			t.Errorf("result %d: expected score %f, got %f", i, w, normalized[i].Score)
		}
	}
	if results[0].Score != 2.0 {
		t.Error("normalizeScores modified its input")
	}
}

func TestFuseScores_NoResults(t *testing.T) {
	if fused := fuseScores([]Result{}, []Result{}, DefaultFusionConfig); len(fused) != 0 {
		t.Errorf("expected 0 fused results, got %d", len(fused))
	}
}

func TestFuseScores_Overlapping(t *testing.T) {
	bm25Results := []Result{
		{ID: "a", Score: 0.8},
		{ID: "b", Score: 0.6},
	}
	semanticResults := []Result{
		{ID: "a", Score: 0.9},
		{ID: "c", Score: 0.7},
	}
	config := FusionConfig{SemanticWeight: 0.7, KeywordWeight: 0.3}

	fused := fuseScores(bm25Results, semanticResults, config)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}

	want := map[string]float64{
		"a": 0.7*0.9 + 0.3*0.8,
		"b": 0.3 * 0.6,
		"c": 0.7 * 0.7,
	}
	for _, r := range fused {
		if math.Abs(r.Score-want[r.ID]) > 0.001 {
			t.Errorf("%s: expected %f, got %f", r.ID, want[r.ID], r.Score)
		}
	}
}

func TestDefaultFusionConfig(t *testing.T) {
	if DefaultFusionConfig.SemanticWeight != 0.7 {
		t.Errorf("expected semantic weight 0.7, got %f", DefaultFusionConfig.SemanticWeight)
	}
	if DefaultFusionConfig.KeywordWeight != 0.3 {
		t.Errorf("expected keyword weight 0.3, got %f", DefaultFusionConfig.KeywordWeight)
	}
}

func TestSearchHybrid(t *testing.T) {
	indexer := newTestIndexer(t)

	results, err := indexer.SearchHybrid("checkout button", 2, DefaultFusionConfig)
	if err != nil {
		t.Fatalf("hybrid search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected hybrid results")
	}
	if len(results) > 2 {
		t.Errorf("expected at most 2 results, got %d", len(results))
	}
	if results[0].ID != "fb-2" {
		t.Errorf("expected fb-2 first, got %s", results[0].ID)
	}
	for _, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("fused score out of range: %f", r.Score)
		}
	}
}
