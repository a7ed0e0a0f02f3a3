package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/enhancer"
)

// NewPromptCmd creates the 'prompt' command, which prints the enhanced prompt
// an analysis would send without calling a backend.
func NewPromptCmd() *cobra.Command {
	var instruction, analysisType string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the enhanced analysis prompt",
		Long: `Print the prompt an analysis would send, including learned patterns,
domain knowledge, reviewer insights and confidence hints. No backend is called.`,
		Example: `  tracklens prompt -i "checkout funnel" -t user_action`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd, instruction, analysisType)
		},
	}

	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "What the flow is about")
	cmd.Flags().StringVarP(&analysisType, "type", "t", "", "Event category to focus on")

	return cmd
}

func runPrompt(cmd *cobra.Command, instruction, analysisType string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	prompt := a.Orchestrator.Prompt(analysis.Request{Instruction: instruction, AnalysisType: analysisType})
	fmt.Fprintln(cmd.OutOrStdout(), prompt)
	fmt.Fprintf(cmd.ErrOrStderr(), "~%d tokens\n", enhancer.EstimateTokens(prompt))
	return nil
}
