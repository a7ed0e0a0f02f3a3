/*
Package quality scores an AnalysisResult against naming and instrumentation
heuristics. Assess is pure: the same result always yields the same
Assessment.
*/
package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/search"
)

// BaseScore is the score of a result that meets no criterion.
const BaseScore = 0.5

// Criterion is one scored heuristic.
type Criterion struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Awarded float64 `json:"awarded"`
}

// Met reports whether the full weight was awarded.
func (c Criterion) Met() bool { return c.Awarded >= c.Weight }

// Assessment is the outcome of Assess.
type Assessment struct {
	Score        float64     `json:"score"`
	Feedback     []string    `json:"feedback"`
	Improvements []string    `json:"improvements"`
	Criteria     []Criterion `json:"criteria"`
}

var actionVerbs = setOf(
	"click", "clicked", "tap", "tapped", "press", "pressed",
	"view", "viewed", "open", "opened", "close", "closed",
	"select", "selected", "submit", "submitted", "start", "started",
	"complete", "completed", "add", "added", "remove", "removed",
	"search", "searched", "share", "shared", "purchase", "purchased",
	"scroll", "scrolled", "swipe", "swiped", "change", "changed",
	"update", "updated", "load", "loaded", "fail", "failed",
	"play", "played", "pause", "paused", "toggle", "toggled",
	"sign", "signed", "login", "logout", "register", "registered",
	"dismiss", "dismissed", "expand", "expanded", "download", "downloaded",
)

var domainTerms = setOf(
	"product", "order", "cart", "price", "currency", "quantity", "item",
	"sku", "payment", "revenue", "coupon", "discount", "checkout", "category",
	"query", "banner", "campaign", "plan", "subscription", "promo", "brand",
	"amount", "total", "shipping", "content", "article", "video", "level",
)

var contextTerms = setOf("source", "section", "screen")

// Assess scores result. Each criterion met adds its weight and a feedback
// line; each unmet or partially met criterion adds an improvement.
func Assess(result analysis.AnalysisResult) Assessment {
	a := Assessment{Feedback: []string{}, Improvements: []string{}}

	props := allProperties(result)

	a.award("action_verb_naming", 0.10, full(hasActionVerb(result.Events)),
		"Event names use action verbs",
		"Name events as object plus past-tense verb, e.g. buttonClicked")

	a.award("typed_properties", 0.10, full(hasTypedProperty(props)),
		"Properties carry explicit types",
		"Give every property a type: string, number, boolean or object")

	a.award("domain_properties", 0.10, full(anyPropertyMatches(props, domainTerms)),
		"Properties capture domain concepts",
		"Add domain properties such as productId, price or orderId")

	perEvent := averageProperties(result.Events)
	switch {
	case perEvent >= 3:
		a.award("properties_per_event", 0.10, 1,
			fmt.Sprintf("Events average %.1f properties", perEvent), "")
	case perEvent >= 1:
		a.award("properties_per_event", 0.10, 0.5,
			fmt.Sprintf("Events average %.1f properties", perEvent),
			"Attach at least three properties to each event")
	default:
		a.award("properties_per_event", 0.10, 0, "",
			"Events have almost no properties; add context such as ids and values")
	}

	conf := averageConfidence(result.Events)
	switch {
	case conf >= 0.8:
		a.award("event_confidence", 0.10, 1,
			fmt.Sprintf("Mean event confidence is %.2f", conf), "")
	case conf >= 0.6:
		a.award("event_confidence", 0.10, 0.5,
			fmt.Sprintf("Mean event confidence is %.2f", conf),
			"Review low-confidence events before instrumenting them")
	default:
		a.award("event_confidence", 0.10, 0, "",
			"Event confidence is low; provide clearer screens or an instruction")
	}

	a.award("global_identity", 0.05, full(hasUserAndTimestamp(result.GlobalProperties)),
		"Global properties include a user id and a timestamp",
		"Add userId and timestamp to globalProperties")

	a.award("contextual_property", 0.05, full(anyPropertyMatches(props, contextTerms)),
		"Events record where they happened",
		"Add a contextual property such as screen, section or source")

	score := BaseScore
	for _, c := range a.Criteria {
		score += c.Awarded
	}
	a.Score = math.Round(analysis.Clamp01(score)*1000) / 1000
	return a
}

// award records a criterion granted fraction of its weight.
func (a *Assessment) award(name string, weight, fraction float64, feedback, improvement string) {
	awarded := weight * fraction
	a.Criteria = append(a.Criteria, Criterion{Name: name, Weight: weight, Awarded: awarded})
	if awarded > 0 && feedback != "" {
		a.Feedback = append(a.Feedback, feedback)
	}
	if awarded < weight && improvement != "" {
		a.Improvements = append(a.Improvements, improvement)
	}
}

func full(met bool) float64 {
	if met {
		return 1
	}
	return 0
}

func hasActionVerb(events []analysis.Event) bool {
	for _, ev := range events {
		for _, tok := range search.Tokenize(ev.Name) {
			if actionVerbs[tok] {
				return true
			}
		}
	}
	return false
}

func hasTypedProperty(props []analysis.Property) bool {
	for _, p := range props {
		if p.Type != "" && analysis.IsKnownType(string(p.Type)) {
			return true
		}
	}
	return false
}

func anyPropertyMatches(props []analysis.Property, terms map[string]bool) bool {
	for _, p := range props {
		for _, tok := range search.Tokenize(p.Name) {
			if terms[tok] {
				return true
			}
		}
	}
	return false
}

func hasUserAndTimestamp(globals []analysis.Property) bool {
	var user, ts bool
	for _, p := range globals {
		name := strings.ToLower(strings.ReplaceAll(p.Name, "_", ""))
		switch {
		case name == "userid" || name == "user" || strings.HasSuffix(name, "userid"):
			user = true
		case name == "timestamp" || name == "eventtime" || name == "time":
			ts = true
		}
	}
	return user && ts
}

func averageProperties(events []analysis.Event) float64 {
	if len(events) == 0 {
		return 0
	}
	total := 0
	for _, ev := range events {
		total += len(ev.Properties)
	}
	return float64(total) / float64(len(events))
}

func averageConfidence(events []analysis.Event) float64 {
	if len(events) == 0 {
		return 0
	}
	total := 0.0
	for _, ev := range events {
		total += ev.Confidence
	}
	return total / float64(len(events))
}

func allProperties(result analysis.AnalysisResult) []analysis.Property {
	var props []analysis.Property
	for _, ev := range result.Events {
		props = append(props, ev.Properties...)
	}
	props = append(props, result.GlobalProperties...)
	return props
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
