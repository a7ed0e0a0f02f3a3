/*
Package parser recovers a structured analysis from free-form model text.

Model output is rarely clean JSON: it arrives wrapped in markdown fences,
preceded by prose, cut off mid-structure, or written with trailing commas and
bare keys. Parse runs an ordered list of extraction strategies over the text,
tries each candidate as-is and then after syntactic repair, and returns the
first candidate that decodes into one of the accepted shapes.

Parse never panics. When nothing can be recovered it returns a *ParseFailure
describing what was tried.
*/
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// ParseFailure reports that no strategy produced a recognizable payload.
type ParseFailure struct {
	// Attempts is the number of candidate decodes that were tried.
	Attempts int
	// Reason is the last decode error, if any.
	Reason string
	// Excerpt is the start of the input, for logs.
	Excerpt string
}

func (e *ParseFailure) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("parse failure after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("parse failure after %d attempts: %s", e.Attempts, e.Reason)
}

const excerptLen = 120

// Parse extracts a Payload from raw model text.
func Parse(text string) (Payload, error) {
	failure := &ParseFailure{Excerpt: excerpt(text)}
	if strings.TrimSpace(text) == "" {
		failure.Reason = "empty input"
		return nil, failure
	}

	tried := make(map[string]bool)
	for _, cand := range candidates(text) {
		for _, attempt := range []string{cand, Repair(cand)} {
			if attempt == "" || tried[attempt] {
				continue
			}
			tried[attempt] = true
			failure.Attempts++

			var raw any
			if err := json.Unmarshal([]byte(attempt), &raw); err != nil {
				failure.Reason = err.Error()
				continue
			}
			if p, ok := classify(raw); ok {
				return p, nil
			}
			failure.Reason = "decoded value matches no accepted shape"
		}
	}
	return nil, failure
}

// ParseResult parses text and normalizes the payload into an AnalysisResult.
// The result has no ID or CreatedAt; the caller assigns those.
func ParseResult(text string) (analysis.AnalysisResult, error) {
	p, err := Parse(text)
	if err != nil {
		return analysis.AnalysisResult{}, err
	}
	return ToResult(p), nil
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= excerptLen {
		return s
	}
	return s[:excerptLen] + "..."
}
