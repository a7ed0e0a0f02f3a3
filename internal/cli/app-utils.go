package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/app"
	"github.com/khanglvm/tracklens/internal/config"
	"github.com/khanglvm/tracklens/internal/logging"
)

// flagValue reads a local or inherited string flag, or "" when the command
// has no such flag.
func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// loadConfig resolves and loads config honoring --config and --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, path, err := config.Load(flagValue(cmd, "config"))
	if err != nil {
		return nil, path, err
	}
	if lvl := flagValue(cmd, "log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, path, nil
}

// loadApp builds an App for one command invocation. Callers must Close it.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, app.Options{Logger: logger})
}

// formatJSON pretty-prints data.
func formatJSON(data interface{}) (string, error) {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func printJSON(w io.Writer, data interface{}) error {
	out, err := formatJSON(data)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// readJSONInput decodes a JSON file, or stdin when path is "-".
func readJSONInput(cmd *cobra.Command, path string, out interface{}) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// readImageFiles loads screenshots in argument order.
func readImageFiles(paths []string) ([]analysis.Image, error) {
	images := make([]analysis.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", p, err)
		}
		img := analysis.Image{Name: filepath.Base(p), Data: data}
		if info, err := os.Stat(p); err == nil {
			img.CapturedAt = info.ModTime().UTC()
		}
		images = append(images, img)
	}
	return images, nil
}
