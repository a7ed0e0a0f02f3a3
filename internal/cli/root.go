/*
Package cli implements the command-line interface for tracklens.

Each command is implemented as a separate function that returns a *cobra.Command,
allowing for clean separation and easy testing.
*/
package cli

import (
	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/version"
)

// NewRootCmd creates the tracklens root command with every subcommand.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tracklens",
		Short: "Propose analytics tracking events from app screenshots",
		Long: `tracklens looks at screenshots of an app flow and proposes the analytics
events, properties and global context worth instrumenting.

Reviewer corrections are fed back with 'tracklens feedback'; learned patterns
and naming knowledge shape every later analysis.

Without a configured provider every analysis returns a built-in sample result,
so the whole pipeline can be tried offline.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.tracklens.json, or $TRACKLENS_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewFeedbackCmd())
	rootCmd.AddCommand(NewAssessCmd())
	rootCmd.AddCommand(NewPatternsCmd())
	rootCmd.AddCommand(NewSearchCmd())
	rootCmd.AddCommand(NewPromptCmd())
	rootCmd.AddCommand(NewStatsCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewHTTPCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVerifyCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
