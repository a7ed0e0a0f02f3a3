package knowledge

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/search"
)

const (
	// InitialPatternConfidence is the score of a Pattern created by its
	// first reinforcing feedback, before that feedback's increment.
	InitialPatternConfidence = 0.5

	// ReinforceStep is added to a Pattern's score per corrected event.
	ReinforceStep = 0.1
)

// ReinforcePattern records ev as a correct event for its category: the
// Pattern is created if absent, gains the event name and its properties,
// and its usage count and score go up. The updated Pattern is returned.
func (r *Repository) ReinforcePattern(ev analysis.Event, now time.Time) analysis.Pattern {
	r.mu.Lock()
	defer r.mu.Unlock()

	category := string(ev.Category)
	if category == "" {
		category = string(analysis.CategoryUserAction)
	}

	p, ok := r.patterns[category]
	if !ok {
		p = &analysis.Pattern{
			ID:              uuid.New().String(),
			ScreenType:      category,
			CommonEvents:    []string{},
			ConfidenceScore: InitialPatternConfidence,
		}
		r.patterns[category] = p
	}

	if !p.HasEvent(ev.Name) {
		p.CommonEvents = append(p.CommonEvents, ev.Name)
	}
	for _, prop := range ev.Properties {
		p.MergeProperty(prop)
	}
	p.UsageCount++
	p.ConfidenceScore = roundScore(math.Min(1.0, p.ConfidenceScore+ReinforceStep))
	p.LastUsed = now

	return copyPattern(*p)
}

// roundScore trims float drift so repeated increments land on exact steps.
func roundScore(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// UpsertKnowledge creates or overwrites the item with the same ID.
func (r *Repository) UpsertKnowledge(item analysis.DomainKnowledgeItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putKnowledge(item)
}

func (r *Repository) putKnowledge(item analysis.DomainKnowledgeItem) {
	item.Confidence = analysis.Clamp01(item.Confidence)
	if _, exists := r.knowledge[item.ID]; !exists {
		r.knowledgeOrder = append(r.knowledgeOrder, item.ID)
	}
	r.knowledge[item.ID] = item
}

// AppendFeedback adds fb to the history and indexes it. When the history is
// over capacity the oldest feedback and its index document are evicted.
func (r *Repository) AppendFeedback(fb analysis.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendFeedbackLocked(fb)
}

func (r *Repository) appendFeedbackLocked(fb analysis.Feedback) error {
	r.docSeq++
	docID := fmt.Sprintf("feedback-%d", r.docSeq)

	doc := search.VectorDocument{
		ID:      docID,
		Content: FeedbackContent(fb),
		Metadata: map[string]string{
			"analysisId": fb.AnalysisID,
			"confidence": strconv.FormatFloat(fb.Confidence, 'f', 2, 64),
			"timestamp":  fb.Timestamp.UTC().Format(time.RFC3339),
		},
	}
	if err := r.index.Index(doc); err != nil {
		return fmt.Errorf("failed to index feedback: %w", err)
	}

	r.feedback = append(r.feedback, fb)
	r.docIDs = append(r.docIDs, docID)

	if over := len(r.feedback) - r.cfg.MaxFeedbackHistory; over > 0 {
		evicted := r.docIDs[:over]
		if err := r.index.Remove(evicted...); err != nil {
			r.logger.Warn("failed to evict feedback documents")
		}
		r.feedback = append([]analysis.Feedback(nil), r.feedback[over:]...)
		r.docIDs = append([]string(nil), r.docIDs[over:]...)
	}
	return nil
}

// FeedbackContent is the indexed text of a feedback record: analysis id,
// corrected event names, comments and confidence.
func FeedbackContent(fb analysis.Feedback) string {
	parts := []string{fb.AnalysisID}
	parts = append(parts, fb.EventNames()...)
	if fb.Comments != "" {
		parts = append(parts, fb.Comments)
	}
	parts = append(parts, "confidence "+strconv.FormatFloat(fb.Confidence, 'f', 2, 64))
	return strings.Join(parts, " ")
}

// LearnedKnowledge derives the knowledge items a feedback record teaches:
// one event_naming item per event rename and one property_types item per
// property correction. Items are ordered by source name.
func LearnedKnowledge(fb analysis.Feedback) []analysis.DomainKnowledgeItem {
	var items []analysis.DomainKnowledgeItem

	for _, from := range sortedKeys(fb.Improvements.EventNameChanges) {
		to := fb.Improvements.EventNameChanges[from]
		items = append(items, analysis.DomainKnowledgeItem{
			ID:          "event_naming:" + from,
			Category:    analysis.KnowledgeEventNaming,
			Title:       fmt.Sprintf("Rename %s to %s", from, to),
			Description: fmt.Sprintf("Reviewers renamed event %q to %q. Prefer %q for this interaction.", from, to, to),
			Examples:    []map[string]any{{"from": from, "to": to}},
			Confidence:  0.9,
		})
	}

	for _, from := range sortedKeys(fb.Improvements.PropertyCorrections) {
		to := fb.Improvements.PropertyCorrections[from]
		items = append(items, analysis.DomainKnowledgeItem{
			ID:          "property_naming:" + from,
			Category:    analysis.KnowledgePropertyTypes,
			Title:       fmt.Sprintf("Property %s should be %s", from, to),
			Description: fmt.Sprintf("Reviewers corrected property %q to %q.", from, to),
			Examples:    []map[string]any{{"from": from, "to": to}},
			Confidence:  0.85,
		})
	}

	return items
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyPattern(p analysis.Pattern) analysis.Pattern {
	p.CommonEvents = append([]string(nil), p.CommonEvents...)
	p.SuccessfulProperties = append([]analysis.Property(nil), p.SuccessfulProperties...)
	return p
}
