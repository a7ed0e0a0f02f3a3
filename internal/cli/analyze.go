package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/quality"
)

// analyzeOutput pairs a result with its assessment for --assess.
type analyzeOutput struct {
	Result     analysis.AnalysisResult `json:"result"`
	Assessment *quality.Assessment     `json:"assessment,omitempty"`
}

// NewAnalyzeCmd creates the 'analyze' command.
func NewAnalyzeCmd() *cobra.Command {
	var (
		instruction  string
		analysisType string
		batch        bool
		assess       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>...",
		Short: "Analyze screenshots and propose tracking events",
		Long: `Analyze one or more screenshots of an app flow and print the proposed
tracking plan as JSON.

Images are analyzed together as one flow. With --batch each image is
analyzed on its own and a progress bar is shown on stderr.`,
		Example: `  tracklens analyze home.png product.png cart.png -i "checkout funnel"
  tracklens analyze screens/*.png --batch --assess`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, instruction, analysisType, batch, assess)
		},
	}

	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "What the flow is about")
	cmd.Flags().StringVarP(&analysisType, "type", "t", "", "Event category to focus on (user_action, screen_view, system_event, comprehensive)")
	cmd.Flags().BoolVarP(&batch, "batch", "b", false, "Analyze each image separately")
	cmd.Flags().BoolVarP(&assess, "assess", "a", false, "Include a quality assessment")

	return cmd
}

func runAnalyze(cmd *cobra.Command, paths []string, instruction, analysisType string, batch, assess bool) error {
	images, err := readImageFiles(paths)
	if err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	build := func(res analysis.AnalysisResult) analyzeOutput {
		out := analyzeOutput{Result: res}
		if assess {
			q := a.Assess(res)
			out.Assessment = &q
		}
		return out
	}

	if !batch {
		res := a.Analyze(cmd.Context(), analysis.Request{
			Images:       images,
			Instruction:  instruction,
			AnalysisType: analysisType,
		})
		return printJSON(cmd.OutOrStdout(), build(res))
	}

	bar := progressbar.NewOptions(len(images),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Analyzing screens"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	outputs := make([]analyzeOutput, 0, len(images))
	for _, img := range images {
		res := a.Analyze(cmd.Context(), analysis.Request{
			Images:       []analysis.Image{img},
			Instruction:  instruction,
			AnalysisType: analysisType,
		})
		outputs = append(outputs, build(res))
		bar.Add(1)
	}
	if err := bar.Finish(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	return printJSON(cmd.OutOrStdout(), outputs)
}
