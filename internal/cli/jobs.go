package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	jobsProject string
	jobsLimit   int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect batch jobs",
	Long: `List recent batch jobs or inspect a specific job by ID.

Examples:
  logoforge jobs                 # List recent jobs
  logoforge jobs --project p-123 # Jobs of one project
  logoforge jobs abc123          # Show details for job abc123
  logoforge jobs cancel abc123   # Stop a running job`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCancel,
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow a job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsWatch,
}

func init() {
	jobsCmd.Flags().StringVarP(&jobsProject, "project", "p", "", "only jobs of this project")
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "max jobs")
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsWatchCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}
	return listJobs(ctx)
}

func listJobs(ctx context.Context) error {
	jobs, err := apiClient.ListJobs(ctx, jobsProject, jobsLimit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "KIND", "STATUS", "PROGRESS", "FAILED", "STARTED")
	for _, job := range jobs {
		t.Row(shortID(job.ID), string(job.Kind), string(job.Status),
			fmt.Sprintf("%d/%d", job.Completed, job.Total),
			fmt.Sprintf("%d", len(job.Errors)),
			job.StartedAt.Local().Format("01-02 15:04:05"))
	}
	fmt.Println(t)
	return nil
}

func showJob(ctx context.Context, id string) error {
	job, err := apiClient.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("  Project: %s\n", job.ProjectID)
	fmt.Printf("  Kind: %s\n", job.Kind)
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Progress: %d/%d (%d%%)\n", job.Completed, job.Total, job.Percent)
	fmt.Printf("  Started: %s\n", job.StartedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
		duration := job.CompletedAt.Sub(job.StartedAt)
		fmt.Printf("  Duration: %s\n", duration.Round(time.Second))
	}

	if job.Error != nil && *job.Error != "" {
		fmt.Printf("  Error: %s\n", *job.Error)
	}

	if len(job.LogoIDs) > 0 {
		fmt.Printf("\n  Logos (%d):\n", len(job.LogoIDs))
		for _, l := range job.LogoIDs {
			fmt.Printf("    - %s\n", l)
		}
	}
	if len(job.Errors) > 0 {
		fmt.Printf("\n  Errors (%d):\n", len(job.Errors))
		for _, e := range job.Errors {
			fmt.Printf("    - %s: %s\n", truncate(e.PromptText, 50), e.ErrorMessage)
		}
	}

	return nil
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	if err := apiClient.CancelJob(context.Background(), args[0]); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	fmt.Printf("Cancelled job %s\n", args[0])
	return nil
}

func runJobsWatch(cmd *cobra.Command, args []string) error {
	job, err := apiClient.GetJob(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if noTUI {
		return watchPlain(apiClient, job)
	}
	return RunJobProgress(apiClient, job)
}
