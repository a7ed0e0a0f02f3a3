package config

import (
	"fmt"
	"strings"
)

var (
	knownProviders = []string{"openai", "anthropic", "gemini", "ollama"}
	knownDrivers   = []string{"sqlite", "badger", "redis", "memory"}
	knownLevels    = []string{"debug", "info", "warn", "error"}
	knownFormats   = []string{"json", "console"}
)

// Validate checks a defaulted config. The first problem found is returned as
// a *FieldError.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &FieldError{Field: "config", Reason: "missing"}
	}

	if p := cfg.Provider; p != nil && p.Name != "" {
		if !oneOf(strings.ToLower(p.Name), knownProviders) {
			return &FieldError{Field: "provider.name", Reason: fmt.Sprintf("unknown provider %q (want one of %s)", p.Name, strings.Join(knownProviders, ", "))}
		}
		if p.MaxTokens < 0 {
			return &FieldError{Field: "provider.maxTokens", Reason: "must not be negative"}
		}
		if p.RequestsPerMinute < 0 {
			return &FieldError{Field: "provider.requestsPerMinute", Reason: "must not be negative"}
		}
	}

	if s := cfg.Storage; s != nil {
		if !oneOf(s.Driver, knownDrivers) {
			return &FieldError{Field: "storage.driver", Reason: fmt.Sprintf("unknown driver %q (want one of %s)", s.Driver, strings.Join(knownDrivers, ", "))}
		}
		if s.Driver == "redis" && s.RedisAddr == "" {
			return &FieldError{Field: "storage.redisAddr", Reason: "required for the redis driver"}
		}
	}

	if l := cfg.Learning; l != nil {
		for _, f := range []struct {
			name  string
			value float64
		}{
			{"learning.patternThreshold", l.PatternThreshold},
			{"learning.knowledgeThreshold", l.KnowledgeThreshold},
			{"learning.insightThreshold", l.InsightThreshold},
			{"learning.boostFactor", l.BoostFactor},
			{"learning.boostCap", l.BoostCap},
		} {
			if f.value < 0 || f.value > 1 {
				return &FieldError{Field: f.name, Reason: fmt.Sprintf("%v is outside [0, 1]", f.value)}
			}
		}
		if l.DecayHalfLifeDays != nil && *l.DecayHalfLifeDays < 0 {
			return &FieldError{Field: "learning.decayHalfLifeDays", Reason: "must not be negative"}
		}
	}

	if lg := cfg.Logging; lg != nil {
		if !oneOf(strings.ToLower(lg.Level), knownLevels) {
			return &FieldError{Field: "logging.level", Reason: fmt.Sprintf("unknown level %q", lg.Level)}
		}
		if !oneOf(lg.Format, knownFormats) {
			return &FieldError{Field: "logging.format", Reason: fmt.Sprintf("unknown format %q", lg.Format)}
		}
	}

	return nil
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
