package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// NewFeedbackCmd creates the 'feedback' command.
func NewFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback <file.json|->",
		Short: "Teach tracklens from reviewer corrections",
		Long: `Ingest a feedback JSON document for a previous analysis.

Corrected events reinforce the pattern of their category; event name and
property corrections become domain knowledge used by later analyses.

Format:
  {
    "analysisId": "...",
    "correctedEvents": [{"name": "bannerClicked", "category": "user_action"}],
    "comments": "...",
    "confidence": 0.9,
    "improvements": {
      "eventNameChanges": {"clk": "bannerClicked"},
      "propertyCorrections": {"prod_id": "productId"},
      "categoryCorrections": {"homeViewed": "screen_view"}
    }
  }`,
		Example: `  tracklens feedback review.json
  cat review.json | tracklens feedback -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(cmd, args[0])
		},
	}

	return cmd
}

func runFeedback(cmd *cobra.Command, path string) error {
	var fb analysis.Feedback
	if err := readJSONInput(cmd, path, &fb); err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.SubmitFeedback(cmd.Context(), fb); err != nil {
		return fmt.Errorf("feedback rejected: %w", err)
	}

	out := cmd.OutOrStdout()
	stats := a.Repo.Stats()
	fmt.Fprintf(out, "✓ Feedback for %s learned\n", fb.AnalysisID)
	fmt.Fprintf(out, "  Patterns:  %d\n", stats.Patterns)
	fmt.Fprintf(out, "  Knowledge: %d (%d learned)\n", stats.Knowledge, stats.LearnedKnowledge)
	fmt.Fprintf(out, "  Feedback:  %d\n", stats.Feedback)
	return nil
}
