/*
Package enhancer builds the analysis prompt.

A base prompt is extended, in a fixed order, with worked examples of the
target format, retrieved Patterns, retrieved domain knowledge, up to three
historical insights and a table of high-confidence events. Given the same
repository state the output is byte-for-byte identical.
*/
package enhancer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// MaxInsights caps the historical insights included in one prompt.
const MaxInsights = 3

// Retriever is the read side of the knowledge repository.
type Retriever interface {
	RetrievePatterns(query, category string) []analysis.Pattern
	RetrieveKnowledge(query string, category analysis.KnowledgeCategory) []analysis.DomainKnowledgeItem
	HistoricalInsights(limit int) []string
	ConfidenceBoosts(patterns []analysis.Pattern) map[string]float64
}

// Context is the material retrieved for one request.
type Context struct {
	Patterns  []analysis.Pattern
	Knowledge []analysis.DomainKnowledgeItem
	Insights  []string
	Boosts    map[string]float64
}

// Enhancer retrieves context from a repository and renders prompts.
type Enhancer struct {
	repo Retriever
}

// New creates an Enhancer over repo.
func New(repo Retriever) *Enhancer {
	return &Enhancer{repo: repo}
}

// Retrieve gathers patterns, knowledge, insights and boosts for req.
// analysisType narrows patterns to one event category; empty uses
// req.AnalysisType.
func (e *Enhancer) Retrieve(req analysis.Request, analysisType string) Context {
	if analysisType == "" {
		analysisType = req.AnalysisType
	}
	query := strings.TrimSpace(req.Instruction + " " + analysisType)

	patterns := e.repo.RetrievePatterns(query, analysisType)
	return Context{
		Patterns:  patterns,
		Knowledge: e.repo.RetrieveKnowledge(query, ""),
		Insights:  e.repo.HistoricalInsights(MaxInsights),
		Boosts:    e.repo.ConfidenceBoosts(patterns),
	}
}

// BuildPrompt retrieves context for req and renders it after basePrompt.
func (e *Enhancer) BuildPrompt(basePrompt string, req analysis.Request, analysisType string) string {
	return Render(basePrompt, req, e.Retrieve(req, analysisType))
}

// Render appends the context sections to basePrompt. Empty sections are
// omitted.
func Render(basePrompt string, req analysis.Request, c Context) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(basePrompt, "\n"))
	sb.WriteString("\n")

	if instr := strings.TrimSpace(req.Instruction); instr != "" {
		sb.WriteString("\n## Instruction\n")
		sb.WriteString(instr)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Examples\n")
	sb.WriteString(workedExamples)

	if len(c.Patterns) > 0 {
		sb.WriteString("\n## Learned patterns\n")
		for _, p := range c.Patterns {
			fmt.Fprintf(&sb, "- %s (confidence %.2f, used %d times)\n", p.ScreenType, p.ConfidenceScore, p.UsageCount)
			if len(p.CommonEvents) > 0 {
				fmt.Fprintf(&sb, "  - common events: %s\n", strings.Join(p.CommonEvents, ", "))
			}
			if len(p.SuccessfulProperties) > 0 {
				names := make([]string, len(p.SuccessfulProperties))
				for i, prop := range p.SuccessfulProperties {
					names[i] = fmt.Sprintf("%s:%s", prop.Name, prop.Type)
				}
				fmt.Fprintf(&sb, "  - successful properties: %s\n", strings.Join(names, ", "))
			}
		}
	}

	if len(c.Knowledge) > 0 {
		sb.WriteString("\n## Domain knowledge\n")
		for _, k := range c.Knowledge {
			fmt.Fprintf(&sb, "- %s [%s]: %s\n", k.Title, k.Category, k.Description)
			if ex := formatExample(k.Examples); ex != "" {
				fmt.Fprintf(&sb, "  - example: %s\n", ex)
			}
		}
	}

	insights := c.Insights
	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	if len(insights) > 0 {
		sb.WriteString("\n## Reviewer insights\n")
		for _, in := range insights {
			fmt.Fprintf(&sb, "- %s\n", in)
		}
	}

	if len(c.Boosts) > 0 {
		sb.WriteString("\n## High-confidence events\n")
		for _, b := range SortedBoosts(c.Boosts) {
			fmt.Fprintf(&sb, "- %s (+%.2f)\n", b.Event, b.Boost)
		}
	}

	return sb.String()
}

// Boost is one entry of the boost table.
type Boost struct {
	Event string
	Boost float64
}

// SortedBoosts orders boosts by value descending, then by event name.
func SortedBoosts(boosts map[string]float64) []Boost {
	out := make([]Boost, 0, len(boosts))
	for name, b := range boosts {
		out = append(out, Boost{Event: name, Boost: b})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Boost != out[j].Boost {
			return out[i].Boost > out[j].Boost
		}
		return out[i].Event < out[j].Event
	})
	return out
}

// formatExample renders the first example with sorted keys.
func formatExample(examples []map[string]any) string {
	if len(examples) == 0 {
		return ""
	}
	ex := examples[0]
	keys := make([]string, 0, len(ex))
	for k := range ex {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, ex[k])
	}
	return strings.Join(parts, ", ")
}

// EstimateTokens approximates the token count of prose at ~4 characters per
// token.
func EstimateTokens(prompt string) int {
	return (len(prompt) + 3) / 4
}
