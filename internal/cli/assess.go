package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/quality"
)

// NewAssessCmd creates the 'assess' command.
func NewAssessCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "assess <result.json|->",
		Short: "Score an analysis result",
		Long: `Score an AnalysisResult JSON document against naming and instrumentation
heuristics. The score starts at 0.5 and each satisfied criterion adds to it.`,
		Example: `  tracklens analyze home.png > result.json && tracklens assess result.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runAssess(cmd *cobra.Command, path string, jsonOutput bool) error {
	var result analysis.AnalysisResult
	if err := readJSONInput(cmd, path, &result); err != nil {
		return err
	}

	a := quality.Assess(result)
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, a)
	}

	fmt.Fprintf(out, "Score: %.2f\n\n", a.Score)
	for _, line := range a.Feedback {
		fmt.Fprintf(out, "  ✓ %s\n", line)
	}
	for _, line := range a.Improvements {
		fmt.Fprintf(out, "  💡 %s\n", line)
	}
	return nil
}
