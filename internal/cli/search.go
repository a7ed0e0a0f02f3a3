package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewSearchCmd creates the 'search' command for searching past feedback.
func NewSearchCmd() *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search past feedback",
		Long: `Search the feedback history with hybrid ranking: BM25 keyword relevance
fused with hashed-embedding similarity.`,
		Example: `  tracklens search banner clicks
  tracklens search "product id" --limit 3 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), limit, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum results")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int, jsonOutput bool) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.SearchHistory(query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "No feedback matches %q.\n", query)
		return nil
	}

	fmt.Fprintf(out, "Results for %q (%d):\n\n", query, len(results))
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s (score %.3f)\n", i+1, r.Metadata["analysisId"], r.Score)
		fmt.Fprintf(out, "   %s\n", r.Content)
	}
	return nil
}
