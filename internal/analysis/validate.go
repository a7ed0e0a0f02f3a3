package analysis

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedFeedback is wrapped by every feedback validation failure.
var ErrMalformedFeedback = errors.New("malformed feedback")

// ValidationError names the offending field of a rejected Feedback.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrMalformedFeedback }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NormalizeFeedback validates fb and returns a copy with categories, property
// types and sources normalized and a timestamp filled in.
//
// Rejections wrap ErrMalformedFeedback. Unknown categories are rejected
// rather than defaulted, since a wrong category would reinforce the wrong
// Pattern.
func NormalizeFeedback(fb Feedback, now time.Time) (Feedback, error) {
	if fb.AnalysisID == "" {
		return Feedback{}, invalid("analysisId", "must not be empty")
	}
	if fb.Confidence < 0 || fb.Confidence > 1 || fb.Confidence != fb.Confidence {
		return Feedback{}, invalid("confidence", "%v is outside [0,1]", fb.Confidence)
	}

	out := fb
	if out.Timestamp.IsZero() {
		out.Timestamp = now
	}

	out.CorrectedEvents = make([]Event, 0, len(fb.CorrectedEvents))
	for i, ev := range fb.CorrectedEvents {
		field := fmt.Sprintf("correctedEvents[%d]", i)
		if ev.Name == "" {
			return Feedback{}, invalid(field+".name", "must not be empty")
		}
		cat, ok := NormalizeCategory(string(ev.Category))
		if !ok {
			return Feedback{}, invalid(field+".category", "unknown category %q", ev.Category)
		}
		ev.Category = cat
		if ev.Confidence < 0 || ev.Confidence > 1 {
			return Feedback{}, invalid(field+".confidence", "%v is outside [0,1]", ev.Confidence)
		}

		seen := make(map[string]bool, len(ev.Properties))
		props := make([]Property, 0, len(ev.Properties))
		for j, p := range ev.Properties {
			pfield := fmt.Sprintf("%s.properties[%d]", field, j)
			if p.Name == "" {
				return Feedback{}, invalid(pfield+".name", "must not be empty")
			}
			if seen[p.Name] {
				return Feedback{}, invalid(pfield+".name", "duplicate property %q", p.Name)
			}
			seen[p.Name] = true
			p.Type = NormalizeType(string(p.Type))
			p.Source = NormalizeSource(string(p.Source))
			p.Confidence = Clamp01(p.Confidence)
			p.Example = copyValue(p.Example)
			props = append(props, p)
		}
		ev.Properties = props
		ev.Triggers = copyStrings(ev.Triggers)
		ev.Sources = copyStrings(ev.Sources)
		out.CorrectedEvents = append(out.CorrectedEvents, ev)
	}

	if err := checkMapping("improvements.eventNameChanges", fb.Improvements.EventNameChanges); err != nil {
		return Feedback{}, err
	}
	if err := checkMapping("improvements.propertyCorrections", fb.Improvements.PropertyCorrections); err != nil {
		return Feedback{}, err
	}
	for name, cat := range fb.Improvements.CategoryCorrections {
		if name == "" {
			return Feedback{}, invalid("improvements.categoryCorrections", "empty event name")
		}
		if _, ok := NormalizeCategory(cat); !ok || cat == "" {
			return Feedback{}, invalid("improvements.categoryCorrections", "unknown category %q for %q", cat, name)
		}
	}

	out.Improvements = fb.Improvements.Clone()
	return out, nil
}

func checkMapping(field string, m map[string]string) error {
	for from, to := range m {
		if from == "" || to == "" {
			return invalid(field, "empty name in mapping %q -> %q", from, to)
		}
	}
	return nil
}
