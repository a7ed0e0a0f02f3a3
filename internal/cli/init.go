package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/config"
	"github.com/khanglvm/tracklens/internal/provider"
)

// NewInitCmd creates the 'init' command for writing a starter config.
func NewInitCmd() *cobra.Command {
	var (
		providerName string
		model        string
		driver       string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Write a starter configuration to ~/.tracklens.json (or --config).

API keys are never written to the file. Set the provider's key in the
environment or in a .env file:
  openai     OPENAI_API_KEY
  anthropic  ANTHROPIC_API_KEY
  gemini     GEMINI_API_KEY
  ollama     none (OLLAMA_HOST for a remote server)`,
		Example: `  tracklens init --provider openai
  tracklens init --provider ollama --model llava:13b --driver badger --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, providerName, model, driver, force)
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "Backend: "+strings.Join(provider.Names(), ", "))
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model name (default per provider)")
	cmd.Flags().StringVarP(&driver, "driver", "d", config.DefaultStorageDriver, "Storage driver: sqlite, badger, redis, memory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config")

	return cmd
}

func runInit(cmd *cobra.Command, providerName, model, driver string, force bool) error {
	path, err := config.ResolvePath(flagValue(cmd, "config"))
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
	}

	cfg := config.NewConfig()
	cfg.Provider.Name = strings.ToLower(providerName)
	cfg.Provider.Model = model
	if cfg.Provider.Name != "" && cfg.Provider.Model == "" {
		cfg.Provider.Model = provider.DefaultModel(cfg.Provider.Name)
	}
	cfg.Storage.Driver = driver

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Config written to %s\n", path)
	if cfg.Provider.Name == "" {
		fmt.Fprintln(out, "  No provider set: analyses return the built-in sample result.")
	} else {
		fmt.Fprintf(out, "  Provider: %s (%s)\n", cfg.Provider.Name, cfg.Provider.Model)
	}
	fmt.Fprintln(out, "\nNext: run 'tracklens verify' to check the setup.")
	return nil
}
