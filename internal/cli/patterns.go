package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/knowledge"
)

// NewPatternsCmd creates the 'patterns' command for listing learned state.
func NewPatternsCmd() *cobra.Command {
	var (
		category      string
		showKnowledge bool
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"ls"},
		Short:   "List learned patterns and domain knowledge",
		Example: `  tracklens patterns
  tracklens patterns --category user_action
  tracklens patterns --knowledge --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatterns(cmd, category, showKnowledge, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only this event category")
	cmd.Flags().BoolVarP(&showKnowledge, "knowledge", "k", false, "Also list domain knowledge")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runPatterns(cmd *cobra.Command, category string, showKnowledge, jsonOutput bool) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	patterns := a.Repo.Patterns()
	if category != "" && category != knowledge.CategoryAll {
		patterns = nil
		if p, ok := a.Repo.Pattern(category); ok {
			patterns = []analysis.Pattern{p}
		}
	}
	var items []analysis.DomainKnowledgeItem
	if showKnowledge {
		items = a.Repo.Knowledge()
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]interface{}{"patterns": patterns, "knowledge": items})
	}

	if len(patterns) == 0 {
		fmt.Fprintln(out, "No patterns learned yet.")
		fmt.Fprintln(out, "Run 'tracklens feedback <file>' to teach tracklens from reviewed analyses.")
	} else {
		fmt.Fprintf(out, "Learned Patterns (%d):\n\n", len(patterns))
		for _, p := range patterns {
			fmt.Fprintf(out, "  %s\n", p.ScreenType)
			fmt.Fprintf(out, "    Confidence: %.2f\n", p.ConfidenceScore)
			fmt.Fprintf(out, "    Used:       %d times, last %s\n", p.UsageCount, p.LastUsed.Format("2006-01-02"))
			fmt.Fprintf(out, "    Events:     %s\n", strings.Join(p.CommonEvents, ", "))
			if len(p.SuccessfulProperties) > 0 {
				names := make([]string, 0, len(p.SuccessfulProperties))
				for _, prop := range p.SuccessfulProperties {
					names = append(names, prop.Name+":"+string(prop.Type))
				}
				fmt.Fprintf(out, "    Properties: %s\n", strings.Join(names, ", "))
			}
			fmt.Fprintln(out)
		}
	}

	if showKnowledge {
		fmt.Fprintf(out, "Domain Knowledge (%d):\n\n", len(items))
		for _, item := range items {
			fmt.Fprintf(out, "  [%s] %s (%.2f)\n", item.Category, item.Title, item.Confidence)
		}
	}
	return nil
}
