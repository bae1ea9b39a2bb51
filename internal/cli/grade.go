package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/spf13/cobra"
)

var gradeProject bool

var gradeCmd = &cobra.Command{
	Use:   "grade <logo-id | project-id>",
	Short: "Score logos with the LLM",
	Long: `Grade one logo on memorability, scalability, relevance, uniqueness and
simplicity. With --project, grade every ungraded logo of a project as a batch.

Examples:
  logoforge grade l-789
  logoforge grade p-123 --project`,
	Args: cobra.ExactArgs(1),
	RunE: runGrade,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image-file>",
	Short: "Critique an existing logo image",
	Long: `Score an image that is not part of any project and list weaknesses to fix.
Feed the weaknesses to 'logoforge improve --image'.

Examples:
  logoforge analyze current-logo.png`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	gradeCmd.Flags().BoolVar(&gradeProject, "project", false, "grade all ungraded logos of a project")
	gradeCmd.Flags().BoolVar(&noWait, "no-wait", false, "return once the job is started")
}

func runGrade(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if gradeProject {
		job, err := apiClient.GradeProject(ctx, args[0])
		if err != nil {
			return fmt.Errorf("grade project: %w", err)
		}
		return followJob(job)
	}

	l, err := apiClient.Grade(ctx, args[0])
	if err != nil {
		return fmt.Errorf("grade logo: %w", err)
	}
	if l.Scores != nil {
		printScores(*l.Scores)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	a, err := apiClient.AnalyzeImage(context.Background(), data)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	printScores(a.Scores)
	fmt.Println("\nWeaknesses:")
	for _, w := range a.Weaknesses {
		fmt.Printf("  - %s\n", w)
	}
	return nil
}

func printScores(s models.Scores) {
	fmt.Printf("Score: %d/100\n", s.Composite)
	for _, d := range []struct {
		name string
		dim  models.DimensionScore
	}{
		{"Memorability", s.Memorability},
		{"Scalability", s.Scalability},
		{"Relevance", s.Relevance},
		{"Uniqueness", s.Uniqueness},
		{"Simplicity", s.Simplicity},
	} {
		fmt.Printf("  %-13s %2d/10  %s\n", d.name, d.dim.Score, d.dim.Rationale)
	}
	if s.Summary != "" {
		fmt.Printf("\n%s\n", s.Summary)
	}
}
