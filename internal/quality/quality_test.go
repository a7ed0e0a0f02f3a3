package quality

import (
	"math"
	"testing"

	"github.com/khanglvm/tracklens/internal/analysis"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func prop(name string) analysis.Property {
	return analysis.Property{Name: name, Type: analysis.TypeString, Source: analysis.SourceOnScreen}
}

func TestAssessEmptyResult(t *testing.T) {
	a := Assess(analysis.AnalysisResult{})

	if a.Score != BaseScore {
		t.Errorf("expected base score %v, got %v", BaseScore, a.Score)
	}
	if len(a.Feedback) != 0 {
		t.Errorf("expected no feedback, got %v", a.Feedback)
	}
	if len(a.Improvements) != 7 {
		t.Errorf("expected 7 improvements, got %d: %v", len(a.Improvements), a.Improvements)
	}
	if len(a.Criteria) != 7 {
		t.Errorf("expected 7 criteria, got %d", len(a.Criteria))
	}
}

func TestAssessMonotonic(t *testing.T) {
	steps := []struct {
		name   string
		result analysis.AnalysisResult
		want   float64
	}{
		{"nothing", analysis.AnalysisResult{}, 0.5},
		{"action verb", analysis.AnalysisResult{Events: []analysis.Event{
			{Name: "bannerClicked"},
		}}, 0.6},
		{"typed property, partial count", analysis.AnalysisResult{Events: []analysis.Event{
			{Name: "bannerClicked", Properties: []analysis.Property{prop("label")}},
		}}, 0.75},
		{"domain property", analysis.AnalysisResult{Events: []analysis.Event{
			{Name: "bannerClicked", Properties: []analysis.Property{prop("productId")}},
		}}, 0.85},
		{"three properties", analysis.AnalysisResult{Events: []analysis.Event{
			{Name: "bannerClicked", Properties: []analysis.Property{prop("productId"), prop("price"), prop("label")}},
		}}, 0.9},
		{"partial confidence", analysis.AnalysisResult{Events: []analysis.Event{
			{Name: "bannerClicked", Confidence: 0.7, Properties: []analysis.Property{prop("productId"), prop("price"), prop("label")}},
		}}, 0.95},
		{"high confidence", analysis.AnalysisResult{Events: []analysis.Event{
			{Name: "bannerClicked", Confidence: 0.9, Properties: []analysis.Property{prop("productId"), prop("price"), prop("label")}},
		}}, 1.0},
	}

	prev := -1.0
	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			got := Assess(s.result).Score
			if !approx(got, s.want) {
				t.Errorf("expected score %v, got %v", s.want, got)
			}
			if got < prev {
				t.Errorf("score decreased from %v to %v", prev, got)
			}
			prev = got
		})
	}
}

func TestAssessClampsToOne(t *testing.T) {
	result := analysis.AnalysisResult{
		Events: []analysis.Event{{
			Name:       "productSelected",
			Confidence: 0.95,
			Properties: []analysis.Property{prop("productId"), prop("screenName"), prop("price")},
		}},
		GlobalProperties: []analysis.Property{prop("userId"), prop("timestamp")},
	}

	a := Assess(result)
	if a.Score != 1.0 {
		t.Errorf("expected score clamped to 1.0, got %v", a.Score)
	}
	if len(a.Improvements) != 0 {
		t.Errorf("expected no improvements, got %v", a.Improvements)
	}
	for _, c := range a.Criteria {
		if !c.Met() {
			t.Errorf("expected criterion %s met", c.Name)
		}
	}
}

func TestAssessGlobalIdentity(t *testing.T) {
	tests := []struct {
		name    string
		globals []analysis.Property
		want    bool
	}{
		{"both", []analysis.Property{prop("userId"), prop("timestamp")}, true},
		{"snake case", []analysis.Property{prop("user_id"), prop("timestamp")}, true},
		{"user only", []analysis.Property{prop("userId")}, false},
		{"timestamp only", []analysis.Property{prop("timestamp")}, false},
		{"none", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasUserAndTimestamp(tt.globals); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAssessContextualProperty(t *testing.T) {
	base := analysis.AnalysisResult{Events: []analysis.Event{{Name: "x", Properties: []analysis.Property{prop("label")}}}}
	with := analysis.AnalysisResult{Events: []analysis.Event{{Name: "x", Properties: []analysis.Property{prop("section")}}}}

	diff := Assess(with).Score - Assess(base).Score
	if !approx(diff, 0.05) {
		t.Errorf("expected contextual property to add 0.05, got %v", diff)
	}
}

func TestAssessMockResult(t *testing.T) {
	a := Assess(analysis.MockResult())
	if a.Score <= BaseScore || a.Score > 1 {
		t.Errorf("expected mock result to score above base, got %v", a.Score)
	}
	if len(a.Feedback) == 0 {
		t.Error("expected feedback lines for the mock result")
	}
}

func TestAssessDeterministic(t *testing.T) {
	result := analysis.MockResult()
	first := Assess(result)
	for i := 0; i < 3; i++ {
		again := Assess(result)
		if again.Score != first.Score || len(again.Feedback) != len(first.Feedback) {
			t.Fatal("expected identical assessments")
		}
	}
}
