/*
Package provider adapts vision-capable LLM SDKs to one Backend interface.

Supported backends are openai, anthropic, gemini and ollama. Exactly one is
configured per process; New returns ErrNoBackend when none is usable, which
callers treat as a signal to fall back to the mock result.
*/
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// Backend names.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Gemini    = "gemini"
	Ollama    = "ollama"
)

// ErrNoBackend is returned when no backend is configured or its credentials
// are missing.
var ErrNoBackend = errors.New("no analysis backend configured")

// Backend generates raw model text for a prompt and a sequence of images.
type Backend interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string, images []analysis.Image) (string, error)
}

// Config selects and configures one backend.
type Config struct {
	// Name is one of the backend names. Empty disables analysis backends.
	Name  string
	Model string

	// APIKey overrides the backend's default environment variable.
	APIKey string
	// BaseURL overrides the API endpoint (ollama host, OpenAI-compatible proxies).
	BaseURL string

	MaxTokens int
	// RequestsPerMinute limits outgoing calls. Zero means unlimited.
	RequestsPerMinute int
	// HTTPTimeout bounds one HTTP exchange for backends that take a client.
	HTTPTimeout time.Duration
}

var defaultModels = map[string]string{
	OpenAI:    "gpt-4o",
	Anthropic: "claude-3-5-sonnet-latest",
	Gemini:    "gemini-1.5-pro",
	Ollama:    "llava",
}

var apiKeyEnv = map[string][]string{
	OpenAI:    {"OPENAI_API_KEY", "OPENAI_KEY"},
	Anthropic: {"ANTHROPIC_API_KEY"},
	Gemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

const defaultMaxTokens = 4096

// Names lists the supported backend names.
func Names() []string {
	return []string{OpenAI, Anthropic, Gemini, Ollama}
}

// IsKnown reports whether name is a supported backend.
func IsKnown(name string) bool {
	_, ok := defaultModels[strings.ToLower(name)]
	return ok
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(name string) string {
	return defaultModels[strings.ToLower(name)]
}

// New builds the configured backend, wrapped with a rate limiter when
// RequestsPerMinute is positive.
func New(ctx context.Context, cfg Config) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		return nil, ErrNoBackend
	}
	if !IsKnown(name) {
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", cfg.Name, strings.Join(Names(), ", "))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(name)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	key := resolveAPIKey(name, cfg.APIKey)
	if name != Ollama && key == "" {
		return nil, fmt.Errorf("%w: %s API key is not set", ErrNoBackend, name)
	}

	var (
		b   Backend
		err error
	)
	switch name {
	case OpenAI:
		b = newOpenAI(key, cfg)
	case Anthropic:
		b = newAnthropic(key, cfg)
	case Gemini:
		b, err = newGemini(ctx, key, cfg)
	case Ollama:
		b, err = newOllama(cfg)
	}
	if err != nil {
		return nil, err
	}

	return WithRateLimit(b, cfg.RequestsPerMinute), nil
}

func resolveAPIKey(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, env := range apiKeyEnv[name] {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}
