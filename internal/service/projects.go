package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// ProjectService manages projects, their directions and logo metadata.
type ProjectService struct {
	projects ProjectStore
	logos    LogoStore
	prompter Prompter
}

// NewProjectService creates a ProjectService.
func NewProjectService(projects ProjectStore, logos LogoStore, prompter Prompter) *ProjectService {
	return &ProjectService{projects: projects, logos: logos, prompter: prompter}
}

// Create creates a project.
func (s *ProjectService) Create(ctx context.Context, name string, brief models.CompanyBrief) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(brief.CompanyName)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	return s.projects.CreateProject(ctx, name, brief)
}

// Get returns a project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.projects.GetProject(ctx, id)
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	return s.projects.ListProjects(ctx)
}

// Update applies upd to a project.
func (s *ProjectService) Update(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: project name cannot be empty", ErrInvalidInput)
	}
	if upd.PhaseProgress != nil && (*upd.PhaseProgress < 0 || *upd.PhaseProgress > 100) {
		return nil, fmt.Errorf("%w: phase progress must be between 0 and 100", ErrInvalidInput)
	}
	return s.projects.UpdateProject(ctx, id, upd)
}

// ExtractBrief reads a company brief out of a free-text document.
func (s *ProjectService) ExtractBrief(ctx context.Context, text string) (models.CompanyBrief, []string, error) {
	if strings.TrimSpace(text) == "" {
		return models.CompanyBrief{}, nil, fmt.Errorf("%w: document text is required", ErrInvalidInput)
	}
	out, err := s.prompter.ExtractBrief(ctx, text)
	if err != nil {
		return models.CompanyBrief{}, nil, err
	}
	return out.CompanyBrief, out.Gaps, nil
}

// ProposeDirections asks the LLM for creative directions and replaces the
// project's current ones.
func (s *ProjectService) ProposeDirections(ctx context.Context, projectID, competitors string) ([]models.Direction, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	dirs, err := s.prompter.ProposeDirections(ctx, project.CompanyBrief, competitors)
	if err != nil {
		return nil, err
	}
	return s.projects.ReplaceDirections(ctx, projectID, dirs)
}

// Directions lists a project's directions in sort order.
func (s *ProjectService) Directions(ctx context.Context, projectID string) ([]models.Direction, error) {
	return s.projects.ListDirections(ctx, projectID)
}

// SelectDirection marks a direction as selected or not.
func (s *ProjectService) SelectDirection(ctx context.Context, directionID string, selected bool) (*models.Direction, error) {
	return s.projects.SetDirectionSelected(ctx, directionID, selected)
}

// Logos lists a project's logos in creation order.
func (s *ProjectService) Logos(ctx context.Context, projectID string, includeArchived bool) ([]models.Logo, error) {
	return s.logos.ListProjectLogos(ctx, projectID, includeArchived)
}

// Logo returns one logo.
func (s *ProjectService) Logo(ctx context.Context, id string) (*models.Logo, error) {
	return s.logos.GetLogo(ctx, id)
}

// UpdateLogo changes favorite, archived or score metadata. Composite scores
// are recomputed from the five dimensions.
func (s *ProjectService) UpdateLogo(ctx context.Context, id string, upd models.LogoUpdate) (*models.Logo, error) {
	if upd.Scores != nil {
		sc := *upd.Scores
		for _, d := range []models.DimensionScore{sc.Memorability, sc.Scalability, sc.Relevance, sc.Uniqueness, sc.Simplicity} {
			if d.Score < 0 || d.Score > 10 {
				return nil, fmt.Errorf("%w: scores must be between 0 and 10", ErrInvalidInput)
			}
		}
		sc.Composite = CompositeScore(sc)
		upd.Scores = &sc
	}
	return s.logos.UpdateLogo(ctx, id, upd)
}

// SelectWinner sets the project's winning logo. The logo must belong to the
// project; an empty logoID clears the winner.
func (s *ProjectService) SelectWinner(ctx context.Context, projectID, logoID string) (*models.Project, error) {
	if logoID != "" {
		logo, err := s.logos.GetLogo(ctx, logoID)
		if err != nil {
			return nil, fmt.Errorf("get logo: %w", err)
		}
		if logo.ProjectID != projectID {
			return nil, fmt.Errorf("%w: logo %s belongs to another project", ErrInvalidInput, logoID)
		}
	}
	return s.projects.UpdateProject(ctx, projectID, models.ProjectUpdate{WinnerLogoID: &logoID})
}

// CompositeScore is the mean of the five 0-10 dimensions scaled to 0-100.
func CompositeScore(s models.Scores) int {
	sum := s.Memorability.Score + s.Scalability.Score + s.Relevance.Score +
		s.Uniqueness.Score + s.Simplicity.Score
	return sum * 2
}
