package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/logoforge/internal/client"
	"github.com/raphaelgruber/logoforge/internal/models"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the job status
type tickMsg time.Time

// jobUpdateMsg carries the updated job data
type jobUpdateMsg struct {
	job *client.Job
	err error
}

// watchFailedMsg switches the model from websocket updates to polling.
type watchFailedMsg struct{ err error }

// progressModel is the bubbletea model for job progress.
type progressModel struct {
	client   *client.Client
	jobID    string
	job      *client.Job
	progress progress.Model
	theme    Theme
	polling  bool
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(c *client.Client, job *client.Job) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		client:   c,
		jobID:    job.ID,
		job:      job,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init starts the progress bar; updates arrive from the websocket watcher.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case watchFailedMsg:
		if m.polling || m.done {
			return m, nil
		}
		m.polling = true
		return m, m.fetchJob()

	case tickMsg:
		return m, m.fetchJob()

	case jobUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch job status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.job = msg.job

		switch m.job.Status {
		case models.JobStatusCompleted:
			m.done = true
			return m, tea.Quit
		case models.JobStatusFailed:
			m.done = true
			m.err = jobError(m.job)
			return m, tea.Quit
		}

		if m.polling {
			return m, tickCmd()
		}
		return m, nil

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	if m.job == nil {
		return "Loading job status...\n"
	}

	var pct float64
	if m.job.Total > 0 {
		pct = float64(m.job.Completed) / float64(m.job.Total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.job.Status))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d logos", m.job.Completed, m.job.Total)

	var current string
	if m.job.CurrentPrompt != "" {
		current = m.theme.hintStyle().Render("  "+truncate(m.job.CurrentPrompt, 70)) + "\n"
	}
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s%s\n", status, progressBar, counts, current, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nJob %s continues in background.\nUse 'logoforge jobs %s' to check status.\n",
			m.jobID, m.jobID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Job failed: %s\n", m.err))
	}

	if m.job == nil {
		return m.theme.completedStyle().Render("✓ Completed\n")
	}
	return jobSummary(m.theme, m.job)
}

// jobSummary lists the logos created and the tasks that failed.
func jobSummary(theme Theme, job *client.Job) string {
	var b strings.Builder
	b.WriteString(theme.completedStyle().Render("✓ Completed") + "\n\n")
	fmt.Fprintf(&b, "  Logos created: %d of %d\n", len(job.LogoIDs), job.Total)
	for _, id := range job.LogoIDs {
		fmt.Fprintf(&b, "    %s\n", id)
	}
	if len(job.Errors) > 0 {
		b.WriteString(theme.errorStyle().Render(fmt.Sprintf("\nFailed tasks (%d):\n", len(job.Errors))))
		for _, e := range job.Errors {
			fmt.Fprintf(&b, "  • %s: %s\n", truncate(e.PromptText, 50), e.ErrorMessage)
		}
	}
	return b.String()
}

func jobError(job *client.Job) error {
	if job.Error != nil && *job.Error != "" {
		return errors.New(*job.Error)
	}
	return errors.New("job failed with unknown error")
}

// fetchJob fetches the current job status from the server.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m progressModel) fetchJob() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		job, err := m.client.GetJob(ctx, m.jobID)
		return jobUpdateMsg{job: job, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunJobProgress runs the interactive progress UI for a job. Updates come
// over the job websocket; if that cannot be opened the UI polls instead.
// Returns nil on success or Ctrl+C (background), error on job failure.
func RunJobProgress(c *client.Client, job *client.Job) error {
	model := newProgressModel(c, job)
	p := tea.NewProgram(model)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_, err := c.WatchJob(ctx, job.ID, func(j client.Job) error {
			p.Send(jobUpdateMsg{job: &j})
			return nil
		})
		if err != nil && ctx.Err() == nil {
			p.Send(watchFailedMsg{err: err})
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		// Ctrl+C leaves the job running on the server.
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}

// watchPlain prints one line per update, for scripts and dumb terminals.
func watchPlain(c *client.Client, job *client.Job) error {
	last, err := c.WatchJob(context.Background(), job.ID, func(j client.Job) error {
		fmt.Printf("[%s] %d/%d (%d%%) %s\n", j.Status, j.Completed, j.Total, j.Percent, truncate(j.CurrentPrompt, 60))
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch job: %w", err)
	}
	if last.Status == models.JobStatusFailed {
		return jobError(last)
	}
	fmt.Print(jobSummary(defaultTheme, last))
	return nil
}
