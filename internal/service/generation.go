package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// GenerationService starts initial logo generation for a project.
type GenerationService struct {
	projects ProjectStore
	logos    *LogoService
	prompter Prompter
	jobs     *JobManager
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(projects ProjectStore, logos *LogoService, prompter Prompter, jobs *JobManager) *GenerationService {
	return &GenerationService{projects: projects, logos: logos, prompter: prompter, jobs: jobs}
}

// EngineerAndStart writes prompts for the project's selected directions and
// starts a background batch for them.
func (s *GenerationService) EngineerAndStart(ctx context.Context, projectID string) (*Job, error) {
	tasks, err := s.EngineerTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.jobs.Start(ctx, projectID, models.JobKindGenerate, tasks, s.generateFor(projectID))
}

// EngineerTasks returns the prompts for the project's selected directions
// without running them.
func (s *GenerationService) EngineerTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	dirs, err := s.projects.ListDirections(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list directions: %w", err)
	}

	selected := make([]models.Direction, 0, len(dirs))
	for _, d := range dirs {
		if d.Selected {
			selected = append(selected, d)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: select at least one direction", ErrInvalidInput)
	}

	return s.prompter.EngineerPrompts(ctx, project.CompanyBrief, selected)
}

// StartBatch runs caller-supplied tasks in the background.
func (s *GenerationService) StartBatch(ctx context.Context, projectID string, tasks []models.Task) (*Job, error) {
	if err := s.checkBatch(ctx, projectID, tasks); err != nil {
		return nil, err
	}
	return s.jobs.Start(ctx, projectID, models.JobKindGenerate, tasks, s.generateFor(projectID))
}

// Run runs caller-supplied tasks and waits for the batch to finish.
func (s *GenerationService) Run(ctx context.Context, projectID string, tasks []models.Task) (models.BatchJob, error) {
	if err := s.checkBatch(ctx, projectID, tasks); err != nil {
		return models.BatchJob{}, err
	}
	return s.jobs.Run(ctx, projectID, models.JobKindGenerate, tasks, s.generateFor(projectID))
}

func (s *GenerationService) checkBatch(ctx context.Context, projectID string, tasks []models.Task) error {
	if len(tasks) == 0 {
		return fmt.Errorf("%w: at least one task is required", ErrInvalidInput)
	}
	for i, t := range tasks {
		if strings.TrimSpace(t.PromptText) == "" {
			return fmt.Errorf("%w: task %d has no prompt", ErrInvalidInput, i+1)
		}
	}
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	return nil
}

func (s *GenerationService) generateFor(projectID string) GenerateFunc {
	return func(ctx context.Context, task models.Task) (*models.Logo, error) {
		return s.logos.Generate(ctx, projectID, task)
	}
}
