package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/logoforge/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type projectRow struct {
	ID            surrealmodels.RecordID  `json:"id"`
	Name          string                  `json:"name"`
	CompanyBrief  models.CompanyBrief     `json:"company_brief"`
	PhaseProgress int                     `json:"phase_progress"`
	Winner        *surrealmodels.RecordID `json:"winner,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

func (r projectRow) toModel() (models.Project, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}
	winner, err := models.OptionalRecordIDString(r.Winner)
	if err != nil {
		return models.Project{}, fmt.Errorf("project winner: %w", err)
	}
	return models.Project{
		ID:            id,
		Name:          r.Name,
		CompanyBrief:  r.CompanyBrief,
		PhaseProgress: r.PhaseProgress,
		WinnerLogoID:  winner,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

// CreateProject inserts a new project with a generated id.
func (c *Client) CreateProject(ctx context.Context, name string, brief models.CompanyBrief) (*models.Project, error) {
	results, err := query[[]projectRow](ctx, c, `
		CREATE type::record("project", $id) CONTENT {
			name: $name,
			company_brief: $brief
		}
	`, map[string]any{
		"id":    uuid.New().String(),
		"name":  name,
		"brief": brief,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", wrapQueryError(err))
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("create project: no result returned")
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject returns one project or ErrNotFound.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	results, err := query[[]projectRow](ctx, c, `
		SELECT * FROM type::record("project", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all projects, most recently updated first.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	results, err := query[[]projectRow](ctx, c, `
		SELECT * FROM project ORDER BY updated_at DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	in := rows(results)
	out := make([]models.Project, 0, len(in))
	for _, r := range in {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateProject applies the non-nil fields of upd and bumps updated_at.
func (c *Client) UpdateProject(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	sets := []string{"updated_at = time::now()"}
	vars := map[string]any{"id": id}

	if upd.Name != nil {
		sets = append(sets, "name = $name")
		vars["name"] = *upd.Name
	}
	if upd.CompanyBrief != nil {
		sets = append(sets, "company_brief = $brief")
		vars["brief"] = *upd.CompanyBrief
	}
	if upd.PhaseProgress != nil {
		sets = append(sets, "phase_progress = $phase")
		vars["phase"] = *upd.PhaseProgress
	}
	if upd.WinnerLogoID != nil {
		if winner := models.NewRecordID("logo", upd.WinnerLogoID); winner != nil {
			sets = append(sets, "winner = $winner")
			vars["winner"] = *winner
		} else {
			sets = append(sets, "winner = NONE")
		}
	}

	sql := fmt.Sprintf(`UPDATE type::record("project", $id) SET %s RETURN AFTER`, strings.Join(sets, ", "))

	results, err := query[[]projectRow](ctx, c, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", wrapQueryError(err))
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}
