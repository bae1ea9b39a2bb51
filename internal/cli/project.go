package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/raphaelgruber/logoforge/internal/parser"
	"github.com/spf13/cobra"
)

var (
	projectName    string
	projectBrief   string
	projectExtract string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create and inspect projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project from a brief",
	Long: `Create a project. The company brief can come from a markdown file with
YAML frontmatter (--brief) or be extracted from free text by the LLM (--extract).

Examples:
  logoforge project create --brief acme.md
  logoforge project create --name "Acme" --extract about-us.txt`,
	Args: cobra.NoArgs,
	RunE: runProjectCreate,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project and its brief",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectWinnerCmd = &cobra.Command{
	Use:   "winner <project-id> [logo-id]",
	Short: "Set or clear the winning logo",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runProjectWinner,
}

func init() {
	projectCreateCmd.Flags().StringVarP(&projectName, "name", "n", "", "project name (default: company name)")
	projectCreateCmd.Flags().StringVarP(&projectBrief, "brief", "b", "", "markdown brief with YAML frontmatter")
	projectCreateCmd.Flags().StringVar(&projectExtract, "extract", "", "text file to extract the brief from")
	projectCreateCmd.MarkFlagsMutuallyExclusive("brief", "extract")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectWinnerCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var brief models.CompanyBrief
	switch {
	case projectBrief != "":
		content, err := os.ReadFile(projectBrief)
		if err != nil {
			return fmt.Errorf("read brief: %w", err)
		}
		b, err := parser.ParseBrief(string(content))
		if err != nil {
			return fmt.Errorf("parse brief: %w", err)
		}
		brief = b.CompanyBrief
	case projectExtract != "":
		content, err := os.ReadFile(projectExtract)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		b, gaps, err := apiClient.ExtractBrief(ctx, string(content))
		if err != nil {
			return fmt.Errorf("extract brief: %w", err)
		}
		brief = b
		if len(gaps) > 0 {
			fmt.Printf("Could not extract: %s\n", strings.Join(gaps, ", "))
		}
	}

	if projectName == "" && brief.CompanyName == "" {
		return fmt.Errorf("--name is required when the brief has no company name")
	}

	p, err := apiClient.CreateProject(ctx, projectName, brief)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	fmt.Printf("Created project: %s (%s)\n", p.Name, p.ID)
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := apiClient.GetProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	fmt.Printf("Project: %s\n", p.Name)
	fmt.Printf("  ID: %s\n", p.ID)
	fmt.Printf("  Progress: %d%%\n", p.PhaseProgress)
	if p.WinnerLogoID != nil {
		fmt.Printf("  Winner: %s\n", *p.WinnerLogoID)
	}
	fmt.Printf("  Created: %s\n", p.CreatedAt.Format(time.RFC3339))

	b := p.CompanyBrief
	fmt.Println("\nBrief:")
	printField("Company", b.CompanyName)
	printField("Industry", b.Industry)
	printField("Audience", b.TargetAudience)
	printField("Mission", b.MissionStatement)
	printField("Tone", b.Tone)
	printField("Values", strings.Join(b.Values, ", "))
	printField("Colors", strings.Join(b.ColorPreferences, ", "))
	printField("Differentiators", strings.Join(b.Differentiators, ", "))

	logos, err := apiClient.ListLogos(ctx, p.ID, false)
	if err != nil {
		return fmt.Errorf("list logos: %w", err)
	}
	fmt.Printf("\nLogos: %d\n", len(logos))
	return nil
}

func printField(label, value string) {
	if value != "" {
		fmt.Printf("  %s: %s\n", label, value)
	}
}

func runProjectList(cmd *cobra.Command, args []string) error {
	projects, err := apiClient.ListProjects(context.Background())
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "INDUSTRY", "PROGRESS", "UPDATED")
	for _, p := range projects {
		t.Row(p.ID, truncate(p.Name, 30), truncate(p.CompanyBrief.Industry, 20),
			fmt.Sprintf("%d%%", p.PhaseProgress), p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println(t)
	return nil
}

func runProjectWinner(cmd *cobra.Command, args []string) error {
	logoID := ""
	if len(args) == 2 {
		logoID = args[1]
	}
	p, err := apiClient.SelectWinner(context.Background(), args[0], logoID)
	if err != nil {
		return fmt.Errorf("select winner: %w", err)
	}
	if p.WinnerLogoID == nil || *p.WinnerLogoID == "" {
		fmt.Printf("Cleared winner of %s\n", p.Name)
		return nil
	}
	fmt.Printf("Winner of %s: %s\n", p.Name, *p.WinnerLogoID)
	return nil
}
