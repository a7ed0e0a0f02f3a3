/*
Package main is the entry point for the tracklens CLI.

tracklens proposes analytics tracking events from app screenshots and
learns from reviewer corrections.

Usage:
  tracklens [command]

Available Commands:
  analyze     Analyze screenshots and propose tracking events
  feedback    Teach tracklens from reviewer corrections
  assess      Score an analysis result
  patterns    List learned patterns and domain knowledge
  search      Search past feedback
  prompt      Print the enhanced analysis prompt
  stats       Show learning and analysis statistics
  serve       Run the MCP server (stdio transport)
  http        Run the HTTP JSON API
  init        Create a configuration file
  verify      Verify configuration, storage and backend
  version     Show version information

Examples:
  # Analyze a checkout flow
  tracklens analyze home.png cart.png -i "checkout funnel"

  # Run as MCP server
  tracklens serve
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/tracklens/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
