/*
Package analysis defines the data model shared by the tracklens pipeline.

An AnalysisResult is the caller-facing contract: the UI, CSV exporter and
code-snippet generator depend only on its JSON shape, so field names and tags
here must stay stable.
*/
package analysis

import "time"

// PropertyType is the value type of an analytics property.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeObject  PropertyType = "object"
)

// PropertySource tells where a property value comes from.
type PropertySource string

const (
	SourceOnScreen       PropertySource = "on-screen"
	SourceCarriedForward PropertySource = "carried-forward"
	SourceGlobal         PropertySource = "global"
)

// EventCategory classifies an analytics event.
type EventCategory string

const (
	CategoryUserAction  EventCategory = "user_action"
	CategoryScreenView  EventCategory = "screen_view"
	CategorySystemEvent EventCategory = "system_event"
)

// KnowledgeCategory classifies a DomainKnowledgeItem.
type KnowledgeCategory string

const (
	KnowledgeUIPatterns    KnowledgeCategory = "ui_patterns"
	KnowledgeEventNaming   KnowledgeCategory = "event_naming"
	KnowledgePropertyTypes KnowledgeCategory = "property_types"
	KnowledgeBusinessLogic KnowledgeCategory = "business_logic"
)

// Image is one captured screen. Data holds the encoded raster bytes.
type Image struct {
	Name       string    `json:"name,omitempty"`
	MIME       string    `json:"mime,omitempty"`
	Data       []byte    `json:"data"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	CapturedAt time.Time `json:"capturedAt,omitempty"`
}

// Request is the input of one analysis call.
type Request struct {
	Images      []Image `json:"images"`
	Instruction string  `json:"instruction,omitempty"`

	// AnalysisType narrows pattern retrieval to one event category.
	// Empty or "comprehensive" retrieves all categories.
	AnalysisType string `json:"analysisType,omitempty"`
}

// Property is a single typed field attached to an event.
type Property struct {
	Name        string         `json:"name"`
	Type        PropertyType   `json:"type"`
	Source      PropertySource `json:"source"`
	Required    bool           `json:"required"`
	Example     any            `json:"example,omitempty"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description,omitempty"`
}

// Event is one analytics event proposed for a screen.
type Event struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Element    string        `json:"element,omitempty"`
	Properties []Property    `json:"properties"`
	Triggers   []string      `json:"triggers,omitempty"`
	Sources    []string      `json:"sources,omitempty"`
	Confidence float64       `json:"confidence"`
	Category   EventCategory `json:"category"`
}

// AnalysisResult is the structured output of one analysis.
type AnalysisResult struct {
	ID                string                `json:"id"`
	Events            []Event               `json:"events"`
	GlobalProperties  []Property            `json:"globalProperties"`
	CarriedProperties map[string][]Property `json:"carriedProperties"`
	Recommendations   []string              `json:"recommendations"`
	Confidence        float64               `json:"confidence"`
	CreatedAt         time.Time             `json:"createdAt"`
}

// Pattern is a reinforced record of which events and properties proved
// correct for a screen category.
type Pattern struct {
	ID                   string     `json:"id"`
	ScreenType           string     `json:"screenType"`
	CommonEvents         []string   `json:"commonEvents"`
	SuccessfulProperties []Property `json:"successfulProperties"`
	ConfidenceScore      float64    `json:"confidenceScore"`
	UsageCount           int        `json:"usageCount"`
	LastUsed             time.Time  `json:"lastUsed"`
}

// HasEvent reports whether name is already one of the pattern's common events.
func (p *Pattern) HasEvent(name string) bool {
	for _, e := range p.CommonEvents {
		if e == name {
			return true
		}
	}
	return false
}

// MergeProperty adds prop unless a property with the same name exists.
func (p *Pattern) MergeProperty(prop Property) {
	for _, existing := range p.SuccessfulProperties {
		if existing.Name == prop.Name {
			return
		}
	}
	p.SuccessfulProperties = append(p.SuccessfulProperties, prop)
}

// DomainKnowledgeItem is a curated or learned rule about naming and typing
// conventions.
type DomainKnowledgeItem struct {
	ID                string            `json:"id"`
	Category          KnowledgeCategory `json:"category"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Examples          []map[string]any  `json:"examples,omitempty"`
	ApplicableScreens []string          `json:"applicableScreens,omitempty"`
	Confidence        float64           `json:"confidence"`
}

// Improvements carries the structured part of a correction.
type Improvements struct {
	PropertyCorrections map[string]string `json:"propertyCorrections,omitempty"`
	EventNameChanges    map[string]string `json:"eventNameChanges,omitempty"`
	CategoryCorrections map[string]string `json:"categoryCorrections,omitempty"`
}

// Feedback is a human correction of an earlier AnalysisResult.
// It is append-only: nothing mutates a Feedback after ingestion.
type Feedback struct {
	AnalysisID      string       `json:"analysisId"`
	CorrectedEvents []Event      `json:"correctedEvents"`
	Comments        string       `json:"comments,omitempty"`
	Confidence      float64      `json:"confidence"`
	Timestamp       time.Time    `json:"timestamp"`
	Improvements    Improvements `json:"improvements"`
}

// EventNames returns the names of the corrected events in order.
func (f Feedback) EventNames() []string {
	names := make([]string, 0, len(f.CorrectedEvents))
	for _, e := range f.CorrectedEvents {
		names = append(names, e.Name)
	}
	return names
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
