package parser

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/khanglvm/tracklens/internal/analysis"
)

func TestParseResult_FencedWithProse(t *testing.T) {
	text := "Here you go:\n```json\n{\"events\":[{\"name\":\"x\",\"properties\":[]}]}\n```"

	res, err := ParseResult(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(res.Events))
	}
	if res.Events[0].Name != "x" {
		t.Errorf("expected event name x, got %q", res.Events[0].Name)
	}
	if len(res.Events[0].Properties) != 0 {
		t.Errorf("expected zero properties, got %d", len(res.Events[0].Properties))
	}
}

func TestParseResult_TrailingComma(t *testing.T) {
	res, err := ParseResult(`{"events": [ {"name":"y"}, ]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Name != "y" {
		t.Fatalf("expected one event y, got %+v", res.Events)
	}
}

func TestParseResult_WrappingIsTransparent(t *testing.T) {
	raw := `{"events":[{"id":"e1","name":"bannerClicked","category":"user_action","confidence":0.9,
"properties":[{"name":"bannerId","type":"string","example":"b-1"}]}],
"globalProperties":[{"name":"userId","type":"string"}],
"recommendations":["track impressions"],"confidence":0.8}`

	want, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("unwrapped parse failed: %v", err)
	}

	wrappings := []string{
		"```json\n" + raw + "\n```",
		"Sure! Here is the analysis:\n\n```\n" + raw + "\n```\nLet me know if you need more.",
		"Analysis follows.\n" + raw + "\nThat's all.",
	}
	for i, text := range wrappings {
		got, err := ParseResult(text)
		if err != nil {
			t.Errorf("wrapping %d: unexpected error: %v", i, err)
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("wrapping %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestParseResult_UniqueIDsAndProperties(t *testing.T) {
	text := `{"events":[
		{"id":"a","name":"one","properties":[{"name":"p"},{"name":"p","type":"number"},{"name":"q"}]},
		{"id":"a","name":"two"},
		{"name":"three"},
		{"id":"evt_1","name":"four"}
	]}`

	res, err := ParseResult(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(res.Events))
	}

	seen := make(map[string]bool)
	for _, ev := range res.Events {
		if seen[ev.ID] {
			t.Errorf("duplicate id %q", ev.ID)
		}
		seen[ev.ID] = true
	}
	if res.Events[0].ID != "a" {
		t.Errorf("expected model id to be kept, got %q", res.Events[0].ID)
	}

	props := res.Events[0].Properties
	if len(props) != 2 {
		t.Fatalf("expected 2 unique properties, got %d", len(props))
	}
	if props[0].Type != analysis.TypeString {
		t.Errorf("expected first occurrence to win, got type %q", props[0].Type)
	}
}

func TestParseResult_Defaults(t *testing.T) {
	res, err := ParseResult(`{"events":[{"name":"tap","properties":[{"name":"label"}]}],
		"globalProperties":[{"name":"userId","source":"on-screen"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev := res.Events[0]
	if ev.Category != analysis.CategoryUserAction {
		t.Errorf("expected default category user_action, got %q", ev.Category)
	}
	if ev.Confidence != DefaultConfidence {
		t.Errorf("expected default confidence %v, got %v", DefaultConfidence, ev.Confidence)
	}
	p := ev.Properties[0]
	if p.Type != analysis.TypeString || p.Source != analysis.SourceOnScreen {
		t.Errorf("expected string/on-screen defaults, got %q/%q", p.Type, p.Source)
	}
	if res.GlobalProperties[0].Source != analysis.SourceGlobal {
		t.Errorf("expected global property source to be forced, got %q", res.GlobalProperties[0].Source)
	}
	if res.Confidence != DefaultConfidence {
		t.Errorf("expected aggregate to fall back to mean event confidence, got %v", res.Confidence)
	}
}

func TestParseResult_ConfidenceHandling(t *testing.T) {
	res, err := ParseResult(`{"events":[{"name":"a","confidence":90},{"name":"b","confidence":0.5},{"name":"c","confidence":-2}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{0.9, 0.5, 0}
	for i, ev := range res.Events {
		if ev.Confidence != want[i] {
			t.Errorf("event %s: expected confidence %v, got %v", ev.Name, want[i], ev.Confidence)
		}
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("aggregate confidence out of range: %v", res.Confidence)
	}
}

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		shape  string
		events int
	}{
		{
			name:   "screen blocks",
			text:   `[{"screen":"home","events":[{"name":"screenViewed"}]},{"screen":"cart","events":[{"name":"checkout"},{"name":"remove"}]}]`,
			shape:  "screen_blocks",
			events: 3,
		},
		{
			name:   "screens document",
			text:   `{"screens":[{"screenName":"login","events":[{"eventName":"loginTapped"}]}],"confidence":0.7}`,
			shape:  "screens_document",
			events: 1,
		},
		{
			name:   "single document",
			text:   `{"events":[{"name":"a"}],"recommendations":[]}`,
			shape:  "single_document",
			events: 1,
		},
		{
			name:   "bare event array",
			text:   `[{"name":"a"},{"name":"b"}]`,
			shape:  "single_document",
			events: 2,
		},
		{
			name:   "legacy single event",
			text:   `{"eventName":"purchaseCompleted","eventType":"click"}`,
			shape:  "single_document",
			events: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if Shape(p) != tt.shape {
				t.Errorf("expected shape %s, got %s", tt.shape, Shape(p))
			}
			if got := len(ToResult(p).Events); got != tt.events {
				t.Errorf("expected %d events, got %d", tt.events, got)
			}
		})
	}
}

func TestParseResult_ScreenBlocksSources(t *testing.T) {
	res, err := ParseResult(`[{"screen":"home","events":[{"id":"e1","name":"tap"}],
		"carriedProperties":[{"name":"productId"}]},
		{"screen":"cart","events":[{"id":"e1","name":"checkout"}]}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Events[0].Sources[0] != "home" || res.Events[1].Sources[0] != "cart" {
		t.Errorf("expected sources from screen blocks, got %v / %v", res.Events[0].Sources, res.Events[1].Sources)
	}
	if res.Events[0].ID == res.Events[1].ID {
		t.Errorf("expected unique ids across blocks, both are %q", res.Events[0].ID)
	}
	carried := res.CarriedProperties["home"]
	if len(carried) != 1 || carried[0].Source != analysis.SourceCarriedForward {
		t.Errorf("expected one carried-forward property for home, got %+v", carried)
	}
}

func TestParseResult_LegacyFields(t *testing.T) {
	res, err := ParseResult(`{"eventName":"purchaseCompleted","eventType":"click","element":"buy_button",
		"additionalProperties":{"orderId":"o-1","total":{"type":"float","required":true}}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev := res.Events[0]
	if ev.Name != "purchaseCompleted" || ev.Element != "buy_button" {
		t.Errorf("legacy fields not mapped: %+v", ev)
	}
	if ev.Category != analysis.CategoryUserAction {
		t.Errorf("expected user_action, got %q", ev.Category)
	}
	if len(ev.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(ev.Properties))
	}
	if ev.Properties[0].Name != "orderId" || ev.Properties[0].Example != "o-1" {
		t.Errorf("unexpected first property %+v", ev.Properties[0])
	}
	if ev.Properties[1].Type != analysis.TypeNumber || !ev.Properties[1].Required {
		t.Errorf("unexpected second property %+v", ev.Properties[1])
	}
}

func TestParseResult_Repairs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare keys and values", `{events: [{name: checkout, confidence: 0.9}]}`, "checkout"},
		{"single quotes", `{'events': [{'name': 'tap', 'category': 'user_action'}]}`, "tap"},
		{"truncated", `{"events":[{"name":"z","properties":[{"name":"p","type":"int"`, "z"},
		{"truncated mid string", `{"events":[{"name":"cut`, "cut"},
		{"python literals", `{"events":[{"name":"ok","properties":[{"name":"flag","required":True}]}]}`, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseResult(tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Events) == 0 || res.Events[0].Name != tt.want {
				t.Errorf("expected first event %q, got %+v", tt.want, res.Events)
			}
		})
	}
}

func TestParseResult_ProseBeforeTruncatedJSON(t *testing.T) {
	text := "Here is the analysis:\n{\"events\":[{\"name\":\"a\",\"properties\":[{\"name\":\"p\",\"type\":\"str"

	res, err := ParseResult(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Name != "a" {
		t.Fatalf("expected one event a, got %+v", res.Events)
	}
	if len(res.Events[0].Properties) != 1 || res.Events[0].Properties[0].Name != "p" {
		t.Errorf("expected property p, got %+v", res.Events[0].Properties)
	}
}

func TestParseResult_SkipsLeadingObject(t *testing.T) {
	text := `{"note":"ok"}` + "\n" + `{"events":[{"name":"checkoutStarted"}]}`

	res, err := ParseResult(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Name != "checkoutStarted" {
		t.Fatalf("expected one event checkoutStarted, got %+v", res.Events)
	}
}

func TestBalancedRegions(t *testing.T) {
	got := balancedRegions(`pre {"a":1} mid [1,{"b":"}"}] tail {"open":`)
	want := []string{`{"a":1}`, `[1,{"b":"}"}]`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParse_Failure(t *testing.T) {
	inputs := []string{
		"",
		"I could not analyze these screens.",
		`{"message": "no events here"}`,
		"[1, 2, 3]",
	}

	for _, in := range inputs {
		_, err := Parse(in)
		if err == nil {
			t.Errorf("expected failure for %q", in)
			continue
		}
		var pf *ParseFailure
		if !errors.As(err, &pf) {
			t.Errorf("expected *ParseFailure for %q, got %T", in, err)
		}
	}
}

func TestRepair_KeepsValidJSON(t *testing.T) {
	in := `{"a": [1, 2.5, -3], "b": {"c": "it's, fine: {}"}, "d": true, "e": null}`

	var want, got any
	if err := json.Unmarshal([]byte(in), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(Repair(in)), &got); err != nil {
		t.Fatalf("repair broke valid JSON: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("repair changed value: got %v, want %v", got, want)
	}
}

func TestStripFences(t *testing.T) {
	got := StripFences("```json\n{}\n```")
	if got != "{}" {
		t.Errorf("expected {}, got %q", got)
	}
}
