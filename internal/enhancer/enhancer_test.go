package enhancer

import (
	"strings"
	"testing"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// mockRetriever returns fixed context and records the queries it saw.
type mockRetriever struct {
	patterns  []analysis.Pattern
	knowledge []analysis.DomainKnowledgeItem
	insights  []string
	boosts    map[string]float64

	lastQuery    string
	lastCategory string
	lastLimit    int
}

func (m *mockRetriever) RetrievePatterns(query, category string) []analysis.Pattern {
	m.lastQuery = query
	m.lastCategory = category
	return m.patterns
}

func (m *mockRetriever) RetrieveKnowledge(query string, category analysis.KnowledgeCategory) []analysis.DomainKnowledgeItem {
	return m.knowledge
}

func (m *mockRetriever) HistoricalInsights(limit int) []string {
	m.lastLimit = limit
	return m.insights
}

func (m *mockRetriever) ConfidenceBoosts(patterns []analysis.Pattern) map[string]float64 {
	return m.boosts
}

func fullRetriever() *mockRetriever {
	return &mockRetriever{
		patterns: []analysis.Pattern{{
			ScreenType:           "user_action",
			CommonEvents:         []string{"bannerClicked", "productSelected"},
			SuccessfulProperties: []analysis.Property{{Name: "productId", Type: analysis.TypeString}},
			ConfidenceScore:      0.9,
			UsageCount:           4,
		}},
		knowledge: []analysis.DomainKnowledgeItem{{
			ID:          "event_naming:clk",
			Category:    analysis.KnowledgeEventNaming,
			Title:       "Rename clk to bannerClicked",
			Description: "Prefer bannerClicked.",
			Examples:    []map[string]any{{"to": "bannerClicked", "from": "clk"}},
			Confidence:  0.9,
		}},
		insights: []string{"one", "two", "three", "four"},
		boosts:   map[string]float64{"productSelected": 0.15, "bannerClicked": 0.15, "screenViewed": 0.1},
	}
}

func TestBuildPromptSectionOrder(t *testing.T) {
	e := New(fullRetriever())
	prompt := e.BuildPrompt("BASE", analysis.Request{Instruction: "home screen"}, "")

	sections := []string{"BASE", "## Instruction", "## Examples", "## Learned patterns", "## Domain knowledge", "## Reviewer insights", "## High-confidence events"}
	last := -1
	for _, s := range sections {
		idx := strings.Index(prompt, s)
		if idx < 0 {
			t.Fatalf("expected section %q in prompt", s)
		}
		if idx < last {
			t.Errorf("section %q out of order", s)
		}
		last = idx
	}
}

func TestBuildPromptContent(t *testing.T) {
	e := New(fullRetriever())
	prompt := e.BuildPrompt("BASE", analysis.Request{}, "")

	wants := []string{
		"common events: bannerClicked, productSelected",
		"successful properties: productId:string",
		"Rename clk to bannerClicked [event_naming]: Prefer bannerClicked.",
		"example: from=clk, to=bannerClicked",
	}
	for _, w := range wants {
		if !strings.Contains(prompt, w) {
			t.Errorf("expected prompt to contain %q", w)
		}
	}
}

func TestBuildPromptCapsInsights(t *testing.T) {
	r := fullRetriever()
	e := New(r)
	prompt := e.BuildPrompt("BASE", analysis.Request{}, "")

	if r.lastLimit != MaxInsights {
		t.Errorf("expected insights limit %d, got %d", MaxInsights, r.lastLimit)
	}
	if strings.Contains(prompt, "- four") {
		t.Error("expected at most 3 insights in prompt")
	}
	if !strings.Contains(prompt, "- three") {
		t.Error("expected third insight in prompt")
	}
}

func TestBuildPromptBoostOrder(t *testing.T) {
	e := New(fullRetriever())
	prompt := e.BuildPrompt("BASE", analysis.Request{}, "")

	a := strings.Index(prompt, "- bannerClicked (+0.15)")
	b := strings.Index(prompt, "- productSelected (+0.15)")
	c := strings.Index(prompt, "- screenViewed (+0.10)")
	if a < 0 || b < 0 || c < 0 {
		t.Fatalf("expected all boosts in prompt:\n%s", prompt)
	}
	if !(a < b && b < c) {
		t.Errorf("expected boosts sorted by value then name, got positions %d, %d, %d", a, b, c)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	e := New(fullRetriever())
	req := analysis.Request{Instruction: "checkout"}

	first := e.BuildPrompt(BasePrompt, req, "user_action")
	for i := 0; i < 5; i++ {
		if got := e.BuildPrompt(BasePrompt, req, "user_action"); got != first {
			t.Fatal("expected identical prompts for identical state")
		}
	}
}

func TestBuildPromptEmptyRepository(t *testing.T) {
	e := New(&mockRetriever{})
	prompt := e.BuildPrompt("BASE", analysis.Request{}, "")

	for _, s := range []string{"## Learned patterns", "## Domain knowledge", "## Reviewer insights", "## High-confidence events", "## Instruction"} {
		if strings.Contains(prompt, s) {
			t.Errorf("expected empty section %q to be omitted", s)
		}
	}
	if !strings.Contains(prompt, "## Examples") {
		t.Error("expected worked examples to always be present")
	}
}

func TestRetrieveUsesRequestAnalysisType(t *testing.T) {
	r := &mockRetriever{}
	e := New(r)

	e.Retrieve(analysis.Request{Instruction: "login", AnalysisType: "screen_view"}, "")
	if r.lastCategory != "screen_view" {
		t.Errorf("expected category from request, got %q", r.lastCategory)
	}
	if r.lastQuery != "login screen_view" {
		t.Errorf("expected query %q, got %q", "login screen_view", r.lastQuery)
	}

	e.Retrieve(analysis.Request{AnalysisType: "screen_view"}, "user_action")
	if r.lastCategory != "user_action" {
		t.Errorf("expected explicit category to win, got %q", r.lastCategory)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("a", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.input); got != tt.want {
			t.Errorf("EstimateTokens(%d chars): expected %d, got %d", len(tt.input), tt.want, got)
		}
	}
}
