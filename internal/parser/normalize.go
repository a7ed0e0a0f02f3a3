package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// DefaultConfidence is assigned to events and properties that carry none,
// and to a result with no events and no aggregate confidence.
const DefaultConfidence = 0.85

// ToResult normalizes a payload into an AnalysisResult with unique event ids
// and unique property names per event.
func ToResult(p Payload) analysis.AnalysisResult {
	n := &normalizer{usedIDs: make(map[string]bool)}
	res := analysis.AnalysisResult{
		Events:            []analysis.Event{},
		GlobalProperties:  []analysis.Property{},
		CarriedProperties: map[string][]analysis.Property{},
		Recommendations:   []string{},
	}

	var doc Document
	switch v := p.(type) {
	case ScreenBlocks:
		n.addBlocks(&res, v.Blocks)
	case ScreensDocument:
		n.addBlocks(&res, v.Screens)
		doc = v.Document
	case SingleDocument:
		doc = v.Document
	}

	for _, raw := range doc.Events {
		if ev, ok := n.event(raw, ""); ok {
			res.Events = append(res.Events, ev)
		}
	}
	res.GlobalProperties = propertyField(doc.GlobalProperties, analysis.SourceGlobal, true)
	mergeCarried(res.CarriedProperties, doc.CarriedProperties, "")
	res.Recommendations = append(res.Recommendations, recommendations(doc.Recommendations)...)

	if c, ok := number(doc.Confidence); ok {
		res.Confidence = confidence(c)
	} else {
		res.Confidence = meanConfidence(res.Events)
	}
	return res
}

type normalizer struct {
	usedIDs map[string]bool
	seq     int
}

func (n *normalizer) addBlocks(res *analysis.AnalysisResult, blocks []ScreenBlock) {
	for _, b := range blocks {
		for _, raw := range b.Events {
			if ev, ok := n.event(raw, b.Screen); ok {
				res.Events = append(res.Events, ev)
			}
		}
		mergeCarried(res.CarriedProperties, b.CarriedProperties, b.Screen)
	}
}

func (n *normalizer) event(m map[string]any, screen string) (analysis.Event, bool) {
	name := firstString(m, "name", "eventName", "event_name", "event")
	if name == "" {
		return analysis.Event{}, false
	}

	cat, _ := analysis.NormalizeCategory(firstString(m, "category", "eventType", "event_type", "type"))
	ev := analysis.Event{
		ID:         n.id(firstString(m, "id", "eventId")),
		Name:       name,
		Element:    firstString(m, "element", "elementId", "component", "target"),
		Category:   cat,
		Triggers:   strings1(m["triggers"], m["trigger"]),
		Sources:    strings1(m["sources"], m["screens"], m["source"]),
		Confidence: DefaultConfidence,
	}
	if c, ok := number(m["confidence"]); ok {
		ev.Confidence = confidence(c)
	}
	if len(ev.Sources) == 0 && screen != "" {
		ev.Sources = []string{screen}
	}

	props := propertyField(m["properties"], analysis.SourceOnScreen, false)
	legacy := propertyField(m["additionalProperties"], analysis.SourceOnScreen, false)
	ev.Properties = dedupe(append(props, legacy...))
	return ev, true
}

// id keeps want when it is free, otherwise allocates the next evt_<n>.
func (n *normalizer) id(want string) string {
	if want != "" && !n.usedIDs[want] {
		n.usedIDs[want] = true
		return want
	}
	for {
		n.seq++
		id := fmt.Sprintf("evt_%d", n.seq)
		if !n.usedIDs[id] {
			n.usedIDs[id] = true
			return id
		}
	}
}

// propertyField converts a properties member given either as a list or as an
// object keyed by property name. force pins every property to source.
func propertyField(v any, source analysis.PropertySource, force bool) []analysis.Property {
	if obj, ok := v.(map[string]any); ok && firstString(obj, "name", "propertyName") == "" {
		props := propertyMap(obj, source)
		if force {
			for i := range props {
				props[i].Source = source
			}
		}
		return props
	}
	return properties(asSlice(v), source, force)
}

// properties converts a list of property objects or bare names.
func properties(items []any, source analysis.PropertySource, force bool) []analysis.Property {
	out := []analysis.Property{}
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			if p, ok := property(v, "", source, force); ok {
				out = append(out, p)
			}
		case string:
			if v != "" {
				out = append(out, analysis.Property{Name: v, Type: analysis.TypeString, Source: source, Confidence: DefaultConfidence})
			}
		}
	}
	return dedupe(out)
}

// propertyMap converts {"name": {...}} or {"name": example} objects. Keys are
// visited in sorted order so output is deterministic.
func propertyMap(obj map[string]any, source analysis.PropertySource) []analysis.Property {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []analysis.Property{}
	for _, k := range keys {
		if def, ok := obj[k].(map[string]any); ok && looksLikePropertyDef(def) {
			if p, ok := property(def, k, source, false); ok {
				out = append(out, p)
			}
			continue
		}
		out = append(out, analysis.Property{
			Name:       k,
			Type:       inferType(obj[k]),
			Source:     source,
			Example:    obj[k],
			Confidence: DefaultConfidence,
		})
	}
	return out
}

func looksLikePropertyDef(m map[string]any) bool {
	for _, k := range []string{"type", "source", "required", "example", "description", "confidence", "name"} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func property(m map[string]any, name string, source analysis.PropertySource, force bool) (analysis.Property, bool) {
	if n := firstString(m, "name", "propertyName", "property", "key"); n != "" {
		name = n
	}
	if name == "" {
		return analysis.Property{}, false
	}

	p := analysis.Property{
		Name:        name,
		Source:      source,
		Required:    boolean(m["required"]),
		Example:     first(m, "example", "exampleValue", "value", "sample"),
		Description: firstString(m, "description", "desc"),
		Confidence:  DefaultConfidence,
	}

	if t := firstString(m, "type", "dataType", "propertyType"); t != "" {
		p.Type = analysis.NormalizeType(t)
	} else {
		p.Type = inferType(p.Example)
	}
	if !force {
		if s := firstString(m, "source"); s != "" {
			p.Source = analysis.NormalizeSource(s)
		}
	}
	if c, ok := number(m["confidence"]); ok {
		p.Confidence = confidence(c)
	}
	return p, true
}

func mergeCarried(dst map[string][]analysis.Property, raw any, screen string) {
	switch v := raw.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var props []analysis.Property
			if obj, ok := v[k].(map[string]any); ok && !looksLikePropertyDef(obj) {
				props = propertyMap(obj, analysis.SourceCarriedForward)
			} else {
				props = properties(asSlice(v[k]), analysis.SourceCarriedForward, false)
			}
			dst[k] = dedupe(append(dst[k], props...))
		}
	case []any:
		key := screen
		if key == "" {
			key = "default"
		}
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			p, ok := property(m, "", analysis.SourceCarriedForward, false)
			if !ok {
				continue
			}
			k := key
			if s := firstString(m, "screen", "fromScreen", "from"); s != "" {
				k = s
			}
			dst[k] = dedupe(append(dst[k], p))
		}
	}
}

func recommendations(items []any) []string {
	out := []string{}
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := firstString(v, "text", "recommendation", "description", "title"); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// dedupe keeps the first property of each name.
func dedupe(props []analysis.Property) []analysis.Property {
	seen := make(map[string]bool, len(props))
	out := make([]analysis.Property, 0, len(props))
	for _, p := range props {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out
}

func meanConfidence(events []analysis.Event) float64 {
	if len(events) == 0 {
		return DefaultConfidence
	}
	var sum float64
	for _, e := range events {
		sum += e.Confidence
	}
	return analysis.Clamp01(sum / float64(len(events)))
}

// confidence clamps c to [0,1], reading values in (1,100] as percentages.
func confidence(c float64) float64 {
	if c > 1 && c <= 100 {
		c /= 100
	}
	return analysis.Clamp01(c)
}

func inferType(v any) analysis.PropertyType {
	switch v.(type) {
	case float64:
		return analysis.TypeNumber
	case bool:
		return analysis.TypeBoolean
	case map[string]any, []any:
		return analysis.TypeObject
	}
	return analysis.TypeString
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// strings1 flattens the first non-empty value among vs into a string list.
func strings1(vs ...any) []string {
	for _, v := range vs {
		var out []string
		for _, item := range asSlice(v) {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
		return f, err == nil
	}
	return 0, false
}

func boolean(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, _ := strconv.ParseBool(strings.TrimSpace(b))
		return ok
	}
	return false
}
