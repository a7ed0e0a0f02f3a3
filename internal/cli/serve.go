package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/mcp"
)

// NewServeCmd creates the 'serve' command for running the MCP server.
//
// The server exposes 5 tools via stdio transport:
// - analyze_screens, submit_feedback, assess_quality, search_history, list_patterns
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Start the tracklens MCP server using stdio transport.

This server exposes 5 tools to AI clients:
  • analyze_screens - Propose tracking events for screenshots
  • submit_feedback - Learn from reviewer corrections
  • assess_quality  - Score an analysis result
  • search_history  - Search past feedback
  • list_patterns   - List learned patterns and knowledge

Logs go to stderr; stdout carries the protocol.`,
		Example: `  # Run directly
  tracklens serve

  # Add to an MCP client
  claude mcp add tracklens -- tracklens serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	return cmd
}

// runServe starts the MCP server with stdio transport and signal handling.
// Implements graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
func runServe(cmd *cobra.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	logger := a.Logger

	server := mcp.NewServer(a)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()
	logger.Info("MCP server started", zap.String("backend", a.BackendName()))

	// Wait for either signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := a.Close(); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
			return err
		}
		return nil

	case err := <-errChan:
		// stdin closed or transport error; release resources either way
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("error during cleanup", zap.Error(closeErr))
		}
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
