package knowledge

import (
	"math"
	"sort"
	"strings"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/search"
)

// CategoryAll retrieves patterns of every category.
const CategoryAll = "comprehensive"

type rankedPattern struct {
	pattern   analysis.Pattern
	effective float64
	overlap   int
}

// RetrievePatterns returns up to TopN patterns whose effective confidence
// exceeds PatternThreshold, best first. Ties are broken by how many query
// tokens the pattern mentions, then by usage count. An empty category or
// CategoryAll matches every pattern. Category aliases such as "user-action"
// or "pageview" are normalized; an unrecognized category matches every
// pattern rather than none.
func (r *Repository) RetrievePatterns(query, category string) []analysis.Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := termSet(query)
	now := r.now()
	want, filtered := categoryFilter(category)

	var ranked []rankedPattern
	for _, p := range r.patterns {
		if filtered && p.ScreenType != string(want) {
			continue
		}
		eff := EffectiveConfidence(p.ConfidenceScore, p.LastUsed, now, r.cfg.DecayHalfLife)
		if eff <= r.cfg.PatternThreshold {
			continue
		}
		ranked = append(ranked, rankedPattern{
			pattern:   copyPattern(*p),
			effective: eff,
			overlap:   overlap(terms, patternText(p)),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.effective != b.effective {
			return a.effective > b.effective
		}
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		if a.pattern.UsageCount != b.pattern.UsageCount {
			return a.pattern.UsageCount > b.pattern.UsageCount
		}
		return a.pattern.ScreenType < b.pattern.ScreenType
	})

	if len(ranked) > r.cfg.TopN {
		ranked = ranked[:r.cfg.TopN]
	}
	out := make([]analysis.Pattern, len(ranked))
	for i, rp := range ranked {
		out[i] = rp.pattern
	}
	return out
}

// RetrieveKnowledge returns up to TopN knowledge items whose confidence
// exceeds KnowledgeThreshold, best first, ties broken by query-token overlap.
// An empty category matches every item.
func (r *Repository) RetrieveKnowledge(query string, category analysis.KnowledgeCategory) []analysis.DomainKnowledgeItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := termSet(query)

	type rankedItem struct {
		item    analysis.DomainKnowledgeItem
		overlap int
		order   int
	}
	var ranked []rankedItem
	for i, id := range r.knowledgeOrder {
		item := r.knowledge[id]
		if category != "" && item.Category != category {
			continue
		}
		if item.Confidence <= r.cfg.KnowledgeThreshold {
			continue
		}
		text := item.Title + " " + item.Description + " " + strings.Join(item.ApplicableScreens, " ")
		ranked = append(ranked, rankedItem{item: item, overlap: overlap(terms, text), order: i})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.item.Confidence != b.item.Confidence {
			return a.item.Confidence > b.item.Confidence
		}
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		return a.order < b.order
	})

	if len(ranked) > r.cfg.TopN {
		ranked = ranked[:r.cfg.TopN]
	}
	out := make([]analysis.DomainKnowledgeItem, len(ranked))
	for i, ri := range ranked {
		out[i] = ri.item
	}
	return out
}

// ConfidenceBoosts maps each event name referenced by patterns to a boost of
// min(BoostCap, score*BoostFactor), floored at 0. An event referenced by
// several patterns keeps the largest boost.
func (r *Repository) ConfidenceBoosts(patterns []analysis.Pattern) map[string]float64 {
	boosts := make(map[string]float64)
	for _, p := range patterns {
		b := math.Max(0, math.Min(r.cfg.BoostCap, p.ConfidenceScore*r.cfg.BoostFactor))
		for _, name := range p.CommonEvents {
			if cur, ok := boosts[name]; !ok || b > cur {
				boosts[name] = b
			}
		}
	}
	return boosts
}

// HistoricalInsights returns comments of feedback whose confidence is at
// least InsightThreshold, newest first. Repeated comments appear once.
// A limit of 0 or less returns all of them.
func (r *Repository) HistoricalInsights(limit int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := make([]int, 0, len(r.feedback))
	for i, fb := range r.feedback {
		if fb.Confidence >= r.cfg.InsightThreshold && strings.TrimSpace(fb.Comments) != "" {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := r.feedback[idx[a]].Timestamp, r.feedback[idx[b]].Timestamp
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return idx[a] > idx[b]
	})

	seen := make(map[string]bool)
	var out []string
	for _, i := range idx {
		c := strings.TrimSpace(r.feedback[i].Comments)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// SimilaritySearch ranks feedback documents by embedding similarity only.
func (r *Repository) SimilaritySearch(queryText string, limit int) ([]search.Result, error) {
	return r.index.SearchSemantic(queryText, limit)
}

// SearchHistory ranks feedback documents by fused keyword and semantic score.
func (r *Repository) SearchHistory(query string, limit int) ([]search.Result, error) {
	return r.index.SearchHybrid(query, limit, search.DefaultFusionConfig)
}

// Patterns lists every stored pattern ordered by category.
func (r *Repository) Patterns() []analysis.Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.patternsLocked()
}

func (r *Repository) patternsLocked() []analysis.Pattern {
	out := make([]analysis.Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, copyPattern(*p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScreenType < out[j].ScreenType })
	return out
}

// Pattern returns the stored pattern of a category.
func (r *Repository) Pattern(category string) (analysis.Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[category]
	if !ok {
		return analysis.Pattern{}, false
	}
	return copyPattern(*p), true
}

// Knowledge lists every knowledge item in insertion order.
func (r *Repository) Knowledge() []analysis.DomainKnowledgeItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]analysis.DomainKnowledgeItem, 0, len(r.knowledgeOrder))
	for _, id := range r.knowledgeOrder {
		out = append(out, r.knowledge[id])
	}
	return out
}

// KnowledgeItem returns one knowledge item by id.
func (r *Repository) KnowledgeItem(id string) (analysis.DomainKnowledgeItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.knowledge[id]
	return item, ok
}

// Feedback returns the stored feedback history, oldest first.
func (r *Repository) Feedback() []analysis.Feedback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]analysis.Feedback, len(r.feedback))
	for i, fb := range r.feedback {
		out[i] = fb.Clone()
	}
	return out
}

func patternText(p *analysis.Pattern) string {
	parts := []string{p.ScreenType}
	parts = append(parts, p.CommonEvents...)
	for _, prop := range p.SuccessfulProperties {
		parts = append(parts, prop.Name)
	}
	return strings.Join(parts, " ")
}

func termSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range search.Tokenize(text) {
		set[t] = true
	}
	return set
}

// overlap counts distinct query terms present in text.
func overlap(terms map[string]bool, text string) int {
	if len(terms) == 0 {
		return 0
	}
	n := 0
	for t := range termSet(text) {
		if terms[t] {
			n++
		}
	}
	return n
}

// categoryFilter normalizes a requested category. It reports false when every
// category should match.
func categoryFilter(category string) (analysis.EventCategory, bool) {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return "", false
	}
	cat, ok := analysis.NormalizeCategory(category)
	if !ok {
		return "", false
	}
	return cat, true
}
