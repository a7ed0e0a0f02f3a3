package storage

import "time"

// Run outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeNoBackend      = "no_backend"
	OutcomeBackendFailure = "backend_failure"
	OutcomeParseFailure   = "parse_failure"
)

// RunRecord is one analysis call as kept in run history.
type RunRecord struct {
	// ID is the id of the AnalysisResult the run produced.
	ID string `json:"id"`

	// Provider and Model identify the backend; both are empty for no_backend.
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Outcome is one of the Outcome constants.
	Outcome string `json:"outcome"`

	// InstructionHash is the SHA256 hash of the caller instruction.
	InstructionHash string `json:"instruction_hash"`

	ImageCount   int     `json:"image_count"`
	EventCount   int     `json:"event_count"`
	Confidence   float64 `json:"confidence"`
	PromptTokens int     `json:"prompt_tokens"`

	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Degraded reports whether the run fell back to the mock result.
func (r RunRecord) Degraded() bool {
	return r.Outcome != OutcomeOK
}
