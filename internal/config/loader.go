package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
)

// LoadFrom reads config with enhanced error handling. Defaults are applied
// and the result validated.
func LoadFrom(path string) (*Config, error) {
	// Check file existence first
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigNotFoundError{
				Path: path,
				Hint: "Run 'tracklens init' to create configuration",
			}
		}
		return nil, fmt.Errorf("failed to access config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &PermissionError{
				Path:    path,
				Op:      "read",
				Fix:     getReadPermissionFix(path),
				Details: getPermissionDetails(path),
			}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("JSON parse error: %v", err),
			Hint:    "Restore from .bak file if available",
		}
	}

	cfg.ApplyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "Run 'tracklens verify' for details",
		}
	}
	return &cfg, nil
}

// Load resolves the config path, loads .env and the config file, and applies
// environment overrides. A missing file yields the defaults.
func Load(flagPath string) (*Config, string, error) {
	LoadDotEnv()

	path, err := ResolvePath(flagPath)
	if err != nil {
		return nil, "", err
	}

	cfg, err := LoadFrom(path)
	var notFound *ConfigNotFoundError
	switch {
	case errors.As(err, &notFound):
		cfg = NewConfig()
	case err != nil:
		return nil, path, err
	}

	cfg.ApplyEnv()
	if err := Validate(cfg); err != nil {
		return nil, path, &InvalidConfigError{Path: path, Message: err.Error(), Hint: "Check TRACKLENS_* environment variables"}
	}
	return cfg, path, nil
}

// LoadDotEnv loads .env from the working directory when present. Existing
// environment variables win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// getReadPermissionFix returns platform-specific fix command
func getReadPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	default:
		return fmt.Sprintf("Run: chmod 600 %s", path)
	}
}

// getPermissionDetails reports the current mode bits.
func getPermissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
