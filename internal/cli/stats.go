package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the 'stats' command.
func NewStatsCmd() *cobra.Command {
	var days int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show learning and analysis statistics",
		Example: `  tracklens stats
  tracklens stats --days 30 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, days, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 7, "Run history window in days")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, days int, jsonOutput bool) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := a.Repo.Stats()
	runs, err := a.RunHistory(time.Now().AddDate(0, 0, -days), 0)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}

	outcomes := make(map[string]int)
	var totalDuration time.Duration
	for _, r := range runs {
		outcomes[r.Outcome]++
		totalDuration += r.Duration
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]interface{}{
			"backend":  a.BackendName(),
			"learning": stats,
			"runs":     len(runs),
			"outcomes": outcomes,
		})
	}

	fmt.Fprintln(out, "tracklens Status")
	fmt.Fprintln(out, "================")
	fmt.Fprintf(out, "Backend:           %s\n", a.BackendName())
	fmt.Fprintf(out, "Storage:           %s\n", a.Config.Storage.Driver)
	fmt.Fprintf(out, "Patterns:          %d\n", stats.Patterns)
	fmt.Fprintf(out, "Knowledge items:   %d (%d learned)\n", stats.Knowledge, stats.LearnedKnowledge)
	fmt.Fprintf(out, "Feedback entries:  %d\n", stats.Feedback)
	fmt.Fprintln(out)

	if a.Runs == nil {
		fmt.Fprintln(out, "Run history is not kept by this storage driver.")
		return nil
	}
	fmt.Fprintf(out, "Analyses (last %d days): %d\n", days, len(runs))
	if len(runs) == 0 {
		return nil
	}
	fmt.Fprintf(out, "Average duration:  %s\n", (totalDuration / time.Duration(len(runs))).Round(time.Millisecond))

	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-16s %d\n", name, outcomes[name])
	}
	return nil
}
