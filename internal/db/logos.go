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

// logoRow is the stored shape of a logo; links are record ids.
type logoRow struct {
	ID                    surrealmodels.RecordID  `json:"id"`
	Project               surrealmodels.RecordID  `json:"project"`
	Parent                *surrealmodels.RecordID `json:"parent,omitempty"`
	Direction             *surrealmodels.RecordID `json:"direction,omitempty"`
	GenerationType        string                  `json:"generation_type"`
	BranchDepth           int                     `json:"branch_depth"`
	StoragePath           string                  `json:"storage_path"`
	Prompt                string                  `json:"prompt"`
	StyleLevers           map[string]string       `json:"style_levers,omitempty"`
	RefinementInstruction *string                 `json:"refinement_instruction,omitempty"`
	Scores                *models.Scores          `json:"scores,omitempty"`
	IsFavorite            bool                    `json:"is_favorite"`
	IsArchived            bool                    `json:"is_archived"`
	Mockups               map[string]string       `json:"mockups,omitempty"`
	Accessibility         map[string]any          `json:"accessibility,omitempty"`
	FaviconTest           map[string]any          `json:"favicon_test,omitempty"`
	CreatedAt             time.Time               `json:"created_at"`
}

func (r logoRow) toModel() (models.Logo, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.Logo{}, fmt.Errorf("logo id: %w", err)
	}
	projectID, err := models.RecordIDString(r.Project)
	if err != nil {
		return models.Logo{}, fmt.Errorf("logo project: %w", err)
	}
	parentID, err := models.OptionalRecordIDString(r.Parent)
	if err != nil {
		return models.Logo{}, fmt.Errorf("logo parent: %w", err)
	}
	directionID, err := models.OptionalRecordIDString(r.Direction)
	if err != nil {
		return models.Logo{}, fmt.Errorf("logo direction: %w", err)
	}

	return models.Logo{
		ID:                    id,
		ProjectID:             projectID,
		ParentLogoID:          parentID,
		DirectionID:           directionID,
		GenerationType:        models.GenerationType(r.GenerationType),
		BranchDepth:           r.BranchDepth,
		StoragePath:           r.StoragePath,
		Prompt:                r.Prompt,
		StyleLevers:           r.StyleLevers,
		RefinementInstruction: r.RefinementInstruction,
		Scores:                r.Scores,
		IsFavorite:            r.IsFavorite,
		IsArchived:            r.IsArchived,
		Mockups:               r.Mockups,
		Accessibility:         r.Accessibility,
		FaviconTest:           r.FaviconTest,
		CreatedAt:             r.CreatedAt,
	}, nil
}

func logoRowsToModels(in []logoRow) ([]models.Logo, error) {
	out := make([]models.Logo, 0, len(in))
	for _, r := range in {
		l, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// NewLogoID returns a fresh logo id. Callers need it before insert to build
// the storage path.
func NewLogoID() string {
	return uuid.New().String()
}

// CreateLogo inserts a logo. Depth and parent are stored as given; computing
// them is the caller's job.
func (c *Client) CreateLogo(ctx context.Context, in models.LogoInput) (*models.Logo, error) {
	if in.ID == "" {
		in.ID = NewLogoID()
	}
	if !in.GenerationType.Valid() {
		return nil, fmt.Errorf("create logo: invalid generation type %q", in.GenerationType)
	}

	// Optional links are left out rather than sent as null so the
	// option<record> fields stay NONE.
	content := map[string]any{
		"project":         surrealmodels.NewRecordID("project", in.ProjectID),
		"generation_type": string(in.GenerationType),
		"branch_depth":    in.BranchDepth,
		"storage_path":    in.StoragePath,
		"prompt":          in.Prompt,
	}
	if parent := models.NewRecordID("logo", in.ParentLogoID); parent != nil {
		content["parent"] = *parent
	}
	if dir := models.NewRecordID("direction", in.DirectionID); dir != nil {
		content["direction"] = *dir
	}
	if len(in.StyleLevers) > 0 {
		content["style_levers"] = in.StyleLevers
	}
	if in.RefinementInstruction != nil {
		content["refinement_instruction"] = *in.RefinementInstruction
	}

	results, err := query[[]logoRow](ctx, c, `
		CREATE type::record("logo", $id) CONTENT $content
	`, map[string]any{
		"id":      in.ID,
		"content": content,
	})
	if err != nil {
		return nil, fmt.Errorf("create logo: %w", wrapQueryError(err))
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("create logo: no result returned")
	}
	logo, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &logo, nil
}

// GetLogo returns one logo or ErrNotFound.
func (c *Client) GetLogo(ctx context.Context, id string) (*models.Logo, error) {
	results, err := query[[]logoRow](ctx, c, `
		SELECT * FROM type::record("logo", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get logo: %w", err)
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("get logo %s: %w", id, err)
	}
	logo, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &logo, nil
}

// ListProjectLogos returns a project's logos ordered by creation time.
// Archived logos are included only when includeArchived is set.
func (c *Client) ListProjectLogos(ctx context.Context, projectID string, includeArchived bool) ([]models.Logo, error) {
	sql := `
		SELECT * FROM logo
		WHERE project = type::record("project", $project)
		  AND ($include_archived OR is_archived = false)
		ORDER BY created_at ASC
	`

	results, err := query[[]logoRow](ctx, c, sql, map[string]any{
		"project":          projectID,
		"include_archived": includeArchived,
	})
	if err != nil {
		return nil, fmt.Errorf("list project logos: %w", err)
	}

	return logoRowsToModels(rows(results))
}

// UpdateLogo applies the non-nil fields of upd and returns the updated logo.
func (c *Client) UpdateLogo(ctx context.Context, id string, upd models.LogoUpdate) (*models.Logo, error) {
	var sets []string
	vars := map[string]any{"id": id}

	if upd.IsFavorite != nil {
		sets = append(sets, "is_favorite = $is_favorite")
		vars["is_favorite"] = *upd.IsFavorite
	}
	if upd.IsArchived != nil {
		sets = append(sets, "is_archived = $is_archived")
		vars["is_archived"] = *upd.IsArchived
	}
	if upd.Scores != nil {
		sets = append(sets, "scores = $scores")
		vars["scores"] = upd.Scores
	}
	if len(sets) == 0 {
		return c.GetLogo(ctx, id)
	}

	sql := fmt.Sprintf(`
		UPDATE type::record("logo", $id) SET %s RETURN AFTER
	`, strings.Join(sets, ", "))

	results, err := query[[]logoRow](ctx, c, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("update logo: %w", wrapQueryError(err))
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("update logo %s: %w", id, err)
	}
	logo, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &logo, nil
}
