/*
Package config handles loading, saving, and defaulting tracklens configuration.

Configuration is stored in ~/.tracklens.json (override with --config or
TRACKLENS_CONFIG). API keys never live in the file: the provider section
names the environment variable to read, and a .env file in the working
directory is loaded first when present.

Schema:
  {
    "provider": {
      "name": "openai",
      "model": "gpt-4o",
      "apiKeyEnv": "OPENAI_API_KEY",
      "timeoutSeconds": 60,
      "requestsPerMinute": 20
    },
    "storage": {
      "driver": "sqlite",
      "path": "~/.tracklens/state.db",
      "namespace": "tracklens:learning"
    },
    "learning": {
      "patternThreshold": 0.7,
      "knowledgeThreshold": 0.8,
      "maxFeedbackHistory": 1000,
      "decayHalfLifeDays": 30
    },
    "server": {"addr": ":8080"},
    "logging": {"level": "info", "format": "json"}
  }
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "TRACKLENS_CONFIG"

// Config represents the root configuration structure.
type Config struct {
	Provider *ProviderConfig `json:"provider,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Learning *LearningConfig `json:"learning,omitempty"`
	Server   *ServerConfig   `json:"server,omitempty"`
	Logging  *LoggingConfig  `json:"logging,omitempty"`
}

// ProviderConfig selects the analysis backend.
type ProviderConfig struct {
	// Name is openai, anthropic, gemini or ollama. Empty disables the
	// backend and every analysis returns the mock result.
	Name  string `json:"name,omitempty"`
	Model string `json:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	// Empty uses the provider's conventional variable.
	APIKeyEnv string `json:"apiKeyEnv,omitempty"`
	BaseURL   string `json:"baseUrl,omitempty"`

	MaxTokens         int `json:"maxTokens,omitempty"`
	TimeoutSeconds    int `json:"timeoutSeconds,omitempty"`
	RequestsPerMinute int `json:"requestsPerMinute,omitempty"`
}

// APIKey returns the key from APIKeyEnv, or "" when unset.
func (p *ProviderConfig) APIKey() string {
	if p == nil || p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// StorageConfig selects where learned state is persisted.
type StorageConfig struct {
	// Driver is sqlite, badger, redis or memory.
	Driver    string `json:"driver,omitempty"`
	Path      string `json:"path,omitempty"`
	Namespace string `json:"namespace,omitempty"`

	RedisAddr     string `json:"redisAddr,omitempty"`
	RedisPassword string `json:"redisPassword,omitempty"`
	RedisDB       int    `json:"redisDb,omitempty"`

	// RunRetentionDays bounds analysis run history.
	RunRetentionDays int `json:"runRetentionDays,omitempty"`
}

// LearningConfig tunes retrieval and retention.
type LearningConfig struct {
	PatternThreshold   float64 `json:"patternThreshold,omitempty"`
	KnowledgeThreshold float64 `json:"knowledgeThreshold,omitempty"`
	InsightThreshold   float64 `json:"insightThreshold,omitempty"`
	TopN               int     `json:"topN,omitempty"`
	BoostFactor        float64 `json:"boostFactor,omitempty"`
	BoostCap           float64 `json:"boostCap,omitempty"`
	MaxFeedbackHistory int     `json:"maxFeedbackHistory,omitempty"`

	// DecayHalfLifeDays is a pointer so an explicit 0 (no decay) survives
	// defaulting.
	DecayHalfLifeDays *int `json:"decayHalfLifeDays,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `json:"addr,omitempty"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// Defaults.
const (
	DefaultStorageDriver    = "sqlite"
	DefaultNamespace        = "tracklens:learning"
	DefaultTimeoutSeconds   = 60
	DefaultRetentionDays    = 90
	DefaultDecayHalfLife    = 30
	DefaultServerAddr       = ":8080"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMaxFeedback      = 1000
	DefaultTopN             = 5
	DefaultPatternThreshold = 0.7
	DefaultKnowledgeThresh  = 0.8
	DefaultInsightThreshold = 0.8
	DefaultBoostFactor      = 0.2
	DefaultBoostCap         = 0.15
)

// NewConfig creates a configuration with every default filled in.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.Provider == nil {
		c.Provider = &ProviderConfig{}
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = DefaultNamespace
	}
	if c.Storage.RunRetentionDays <= 0 {
		c.Storage.RunRetentionDays = DefaultRetentionDays
	}
	c.Storage.Path = expandHome(c.Storage.Path)

	if c.Learning == nil {
		c.Learning = &LearningConfig{}
	}
	l := c.Learning
	if l.PatternThreshold == 0 {
		l.PatternThreshold = DefaultPatternThreshold
	}
	if l.KnowledgeThreshold == 0 {
		l.KnowledgeThreshold = DefaultKnowledgeThresh
	}
	if l.InsightThreshold == 0 {
		l.InsightThreshold = DefaultInsightThreshold
	}
	if l.TopN <= 0 {
		l.TopN = DefaultTopN
	}
	if l.BoostFactor == 0 {
		l.BoostFactor = DefaultBoostFactor
	}
	if l.BoostCap == 0 {
		l.BoostCap = DefaultBoostCap
	}
	if l.MaxFeedbackHistory <= 0 {
		l.MaxFeedbackHistory = DefaultMaxFeedback
	}
	if l.DecayHalfLifeDays == nil {
		days := DefaultDecayHalfLife
		l.DecayHalfLifeDays = &days
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// ApplyEnv overrides selected fields from TRACKLENS_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TRACKLENS_PROVIDER"); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv("TRACKLENS_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("TRACKLENS_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("TRACKLENS_STORAGE_PATH"); v != "" {
		c.Storage.Path = expandHome(v)
	}
	if v := os.Getenv("TRACKLENS_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("TRACKLENS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRACKLENS_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// GetDefaultConfigPath returns the path to ~/.tracklens.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tracklens.json"), nil
}

// ResolvePath picks the config path: the explicit flag value, then
// TRACKLENS_CONFIG, then the default location.
func ResolvePath(flagValue string) (string, error) {
	if flagValue != "" {
		return expandHome(flagValue), nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return expandHome(env), nil
	}
	return GetDefaultConfigPath()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
