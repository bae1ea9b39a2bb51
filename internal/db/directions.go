package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/logoforge/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type directionRow struct {
	ID            surrealmodels.RecordID `json:"id"`
	Project       surrealmodels.RecordID `json:"project"`
	Type          string                 `json:"type"`
	Name          string                 `json:"name"`
	Rationale     string                 `json:"rationale"`
	StyleKeywords []string               `json:"style_keywords"`
	Palette       *models.ColorPalette   `json:"color_palette,omitempty"`
	SortOrder     int                    `json:"sort_order"`
	Selected      bool                   `json:"selected"`
	CreatedAt     time.Time              `json:"created_at"`
}

func (r directionRow) toModel() (models.Direction, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.Direction{}, fmt.Errorf("direction id: %w", err)
	}
	projectID, err := models.RecordIDString(r.Project)
	if err != nil {
		return models.Direction{}, fmt.Errorf("direction project: %w", err)
	}
	return models.Direction{
		ID:            id,
		ProjectID:     projectID,
		Type:          models.DirectionType(r.Type),
		Name:          r.Name,
		Rationale:     r.Rationale,
		StyleKeywords: r.StyleKeywords,
		Palette:       r.Palette,
		SortOrder:     r.SortOrder,
		Selected:      r.Selected,
		CreatedAt:     r.CreatedAt,
	}, nil
}

// ReplaceDirections deletes a project's directions and inserts dirs in one
// transaction. Ids are assigned here.
func (c *Client) ReplaceDirections(ctx context.Context, projectID string, dirs []models.Direction) ([]models.Direction, error) {
	contents := make([]map[string]any, len(dirs))
	for i, d := range dirs {
		keywords := d.StyleKeywords
		if keywords == nil {
			keywords = []string{}
		}
		row := map[string]any{
			"id":             surrealmodels.NewRecordID("direction", uuid.New().String()),
			"project":        surrealmodels.NewRecordID("project", projectID),
			"type":           string(d.Type),
			"name":           d.Name,
			"rationale":      d.Rationale,
			"style_keywords": keywords,
			"sort_order":     d.SortOrder,
			"selected":       d.Selected,
		}
		if d.Palette != nil {
			row["color_palette"] = *d.Palette
		}
		contents[i] = row
	}

	sql := `
		BEGIN TRANSACTION;
		DELETE direction WHERE project = type::record("project", $project);
		INSERT INTO direction $rows;
		COMMIT TRANSACTION;
	`
	if _, err := query[any](ctx, c, sql, map[string]any{
		"project": projectID,
		"rows":    contents,
	}); err != nil {
		return nil, fmt.Errorf("replace directions: %w", wrapQueryError(err))
	}

	return c.ListDirections(ctx, projectID)
}

// ListDirections returns a project's directions in display order.
func (c *Client) ListDirections(ctx context.Context, projectID string) ([]models.Direction, error) {
	results, err := query[[]directionRow](ctx, c, `
		SELECT * FROM direction
		WHERE project = type::record("project", $project)
		ORDER BY sort_order ASC
	`, map[string]any{"project": projectID})
	if err != nil {
		return nil, fmt.Errorf("list directions: %w", err)
	}

	in := rows(results)
	out := make([]models.Direction, 0, len(in))
	for _, r := range in {
		d, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// SetDirectionSelected marks a direction as chosen or not for generation.
func (c *Client) SetDirectionSelected(ctx context.Context, id string, selected bool) (*models.Direction, error) {
	results, err := query[[]directionRow](ctx, c, `
		UPDATE type::record("direction", $id) SET selected = $selected RETURN AFTER
	`, map[string]any{"id": id, "selected": selected})
	if err != nil {
		return nil, fmt.Errorf("select direction: %w", wrapQueryError(err))
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("select direction %s: %w", id, err)
	}
	d, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &d, nil
}
