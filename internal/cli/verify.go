package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/app"
	"github.com/khanglvm/tracklens/internal/logging"
)

// NewVerifyCmd creates the 'verify' command for verifying configuration.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify configuration, storage and backend",
		Long: `Verify that the configuration is valid, the storage driver opens and
learned state loads, and report which analysis backend will be used.`,
		Example: `  tracklens verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd)
		},
	}

	return cmd
}

// runVerify validates the configuration and the components it selects.
func runVerify(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		fmt.Fprintf(out, "✓ Config file: %s\n", path)
	} else {
		fmt.Fprintf(out, "- Config file: %s (not found, using defaults)\n", path)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg, app.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(out, "✗ Startup: %v\n", err)
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "✓ Storage: %s\n", cfg.Storage.Driver)
	stats := a.Repo.Stats()
	fmt.Fprintf(out, "✓ Learned state: %d patterns, %d feedback entries\n", stats.Patterns, stats.Feedback)

	if a.Orchestrator.Backend() == nil {
		if cfg.Provider.Name == "" {
			fmt.Fprintln(out, "- Backend: none configured (sample results)")
		} else {
			fmt.Fprintf(out, "✗ Backend: %s API key not found (sample results)\n", cfg.Provider.Name)
		}
	} else {
		fmt.Fprintf(out, "✓ Backend: %s\n", a.BackendName())
	}
	return nil
}
