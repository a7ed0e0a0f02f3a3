package parser

// Payload is one of the accepted response shapes: ScreenBlocks,
// ScreensDocument or SingleDocument.
type Payload interface {
	shape() string
}

// Document holds the top-level members a response may carry alongside its
// events. Values are the decoded JSON, normalized later by ToResult.
type Document struct {
	Events            []map[string]any
	GlobalProperties  any
	CarriedProperties any
	Recommendations   []any
	// Confidence is nil when the response gave no aggregate confidence.
	Confidence any
}

// ScreenBlock is one {screen, events[]} entry.
type ScreenBlock struct {
	Screen            string
	Events            []map[string]any
	CarriedProperties any
}

// ScreenBlocks is a bare array of screen blocks.
type ScreenBlocks struct {
	Blocks []ScreenBlock
}

// ScreensDocument is an object with a screens array plus optional top-level
// members.
type ScreensDocument struct {
	Screens []ScreenBlock
	Document
}

// SingleDocument is an object with top-level events. Bare event arrays and
// single legacy event objects are folded into this shape.
type SingleDocument struct {
	Document
}

func (ScreenBlocks) shape() string    { return "screen_blocks" }
func (ScreensDocument) shape() string { return "screens_document" }
func (SingleDocument) shape() string  { return "single_document" }

// Shape names the payload variant, for logs.
func Shape(p Payload) string {
	if p == nil {
		return ""
	}
	return p.shape()
}

// classify maps a decoded JSON value onto a Payload.
func classify(raw any) (Payload, bool) {
	switch v := raw.(type) {
	case []any:
		if blocks, ok := screenBlocks(v); ok {
			return ScreenBlocks{Blocks: blocks}, true
		}
		if events, ok := eventList(v); ok && len(events) > 0 {
			return SingleDocument{Document{Events: events}}, true
		}
	case map[string]any:
		if screens, ok := v["screens"].([]any); ok {
			if blocks, ok := screenBlocks(screens); ok || len(screens) == 0 {
				return ScreensDocument{Screens: blocks, Document: document(v)}, true
			}
		}
		if _, ok := v["events"]; ok {
			return SingleDocument{document(v)}, true
		}
		if isLegacyEvent(v) {
			return SingleDocument{Document{Events: []map[string]any{v}}}, true
		}
	}
	return nil, false
}

func document(m map[string]any) Document {
	d := Document{
		GlobalProperties:  m["globalProperties"],
		CarriedProperties: m["carriedProperties"],
		Confidence:        m["confidence"],
	}
	d.Events, _ = eventList(asSlice(m["events"]))
	d.Recommendations = asSlice(m["recommendations"])
	return d
}

// screenBlocks accepts a non-empty array whose elements are all objects with
// an events array.
func screenBlocks(items []any) ([]ScreenBlock, bool) {
	if len(items) == 0 {
		return nil, false
	}
	blocks := make([]ScreenBlock, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		raw, ok := m["events"].([]any)
		if !ok {
			return nil, false
		}
		events, _ := eventList(raw)
		blocks = append(blocks, ScreenBlock{
			Screen:            firstString(m, "screen", "screenName", "screen_name", "name", "id"),
			Events:            events,
			CarriedProperties: m["carriedProperties"],
		})
	}
	return blocks, true
}

// eventList keeps the object elements of items. It reports false when items
// is non-empty and none of them looks like an event.
func eventList(items []any) ([]map[string]any, bool) {
	events := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			events = append(events, m)
		}
	}
	if len(items) > 0 {
		for _, e := range events {
			if isLegacyEvent(e) {
				return events, true
			}
		}
		return events, false
	}
	return events, true
}

func isLegacyEvent(m map[string]any) bool {
	return firstString(m, "name", "eventName", "event_name", "event") != ""
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case nil:
		return nil
	default:
		return []any{s}
	}
}
