package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/logoforge/internal/client"
	"github.com/raphaelgruber/logoforge/internal/parser"
	"github.com/spf13/cobra"
)

var (
	noWait            bool
	batchFile         string
	branchInstruction string
	improveWeaknesses []string
	improveImage      string
)

var generateCmd = &cobra.Command{
	Use:   "generate <project-id>",
	Short: "Generate logos for the selected directions",
	Long: `Engineer prompts for every selected direction and generate them as one batch.

Examples:
  logoforge generate p-123
  logoforge generate p-123 --no-wait`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var batchCmd = &cobra.Command{
	Use:   "batch <project-id>",
	Short: "Generate logos from a task file",
	Long: `Run the prompts in a YAML task file as one batch.

A task file is a list of tasks or a document with defaults:

  defaults:
    direction_id: d-456
  tasks:
    - prompt: minimalist fox mark, professional logo design
    - prompt: geometric fox head
      style_levers: {palette: warm}

Examples:
  logoforge batch p-123 --file tasks.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var branchCmd = &cobra.Command{
	Use:   "branch <logo-id>",
	Short: "Generate variations of a logo",
	Args:  cobra.ExactArgs(1),
	RunE:  runBranch,
}

var refineCmd = &cobra.Command{
	Use:   "refine <logo-id> <instruction>",
	Short: "Apply one change to a logo",
	Long: `Rewrite the logo's prompt to apply an instruction and generate the result.

Examples:
  logoforge refine l-789 "make the icon bigger"`,
	Args: cobra.ExactArgs(2),
	RunE: runRefine,
}

var improveCmd = &cobra.Command{
	Use:   "improve <project-id> [logo-id]",
	Short: "Generate new logos addressing a logo's weaknesses",
	Long: `Generate fresh logos that fix the named weaknesses. The results start new
lineages instead of extending the source's tree.

The source is either a stored logo or an existing image file (--image). Without
-w the server analyzes the image and picks the weaknesses itself.

Examples:
  logoforge improve p-123 l-789 -w "low contrast" -w "too detailed at 16px"
  logoforge improve p-123 --image current-logo.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImprove,
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, batchCmd, branchCmd, improveCmd} {
		c.Flags().BoolVar(&noWait, "no-wait", false, "return once the job is started")
	}
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "YAML task file")
	_ = batchCmd.MarkFlagRequired("file")
	branchCmd.Flags().StringVarP(&branchInstruction, "instruction", "i", "", "what to vary (default: palette, typography, simplicity, composition, mood)")
	improveCmd.Flags().StringArrayVarP(&improveWeaknesses, "weakness", "w", nil, "weakness to address (repeatable)")
	improveCmd.Flags().StringVar(&improveImage, "image", "", "improve this image file instead of a stored logo")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	job, err := apiClient.Generate(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("start generation: %w", err)
	}
	return followJob(job)
}

func runBatch(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(batchFile)
	if err != nil {
		return fmt.Errorf("read task file: %w", err)
	}
	tasks, err := parser.ParseTasks(data)
	if err != nil {
		return fmt.Errorf("%s: %w", batchFile, err)
	}

	job, err := apiClient.StartBatch(context.Background(), args[0], tasks)
	if err != nil {
		return fmt.Errorf("start batch: %w", err)
	}
	return followJob(job)
}

func runBranch(cmd *cobra.Command, args []string) error {
	job, err := apiClient.Branch(context.Background(), args[0], branchInstruction)
	if err != nil {
		return fmt.Errorf("branch: %w", err)
	}
	return followJob(job)
}

func runRefine(cmd *cobra.Command, args []string) error {
	fmt.Println("Refining (this waits for the LLM and the image model)...")
	logo, err := apiClient.Refine(context.Background(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("refine: %w", err)
	}
	fmt.Printf("Created %s (depth %d)\n", logo.ID, logo.BranchDepth)
	fmt.Printf("  Prompt: %s\n", logo.Prompt)
	fmt.Printf("  Image: %s\n", logo.StoragePath)
	return nil
}

func runImprove(cmd *cobra.Command, args []string) error {
	req := client.ImproveRequest{Weaknesses: improveWeaknesses}
	switch {
	case len(args) == 2 && improveImage != "":
		return fmt.Errorf("give either a logo id or --image, not both")
	case len(args) == 2:
		req.LogoID = args[1]
	case improveImage != "":
		data, err := os.ReadFile(improveImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		req.Image = data
	default:
		return fmt.Errorf("a logo id or --image is required")
	}

	job, err := apiClient.Improve(context.Background(), args[0], req)
	if err != nil {
		return fmt.Errorf("improve: %w", err)
	}
	return followJob(job)
}

// followJob shows progress for a started job unless --no-wait is set.
func followJob(job *client.Job) error {
	if noWait {
		fmt.Printf("Started job %s (%d tasks)\n", job.ID, job.Total)
		fmt.Printf("Use 'logoforge jobs %s' to check status.\n", job.ID)
		return nil
	}
	if noTUI {
		return watchPlain(apiClient, job)
	}
	return RunJobProgress(apiClient, job)
}
