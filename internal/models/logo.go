// Package models defines data structures for the logoforge brand database.
package models

import "time"

// GenerationType records how a logo was produced. It is set once at creation.
type GenerationType string

const (
	GenerationInitial GenerationType = "initial"
	GenerationBranch  GenerationType = "branch"
	GenerationRefine  GenerationType = "refine"
	GenerationImprove GenerationType = "improve"
)

// Valid reports whether t is one of the known generation types.
func (t GenerationType) Valid() bool {
	switch t {
	case GenerationInitial, GenerationBranch, GenerationRefine, GenerationImprove:
		return true
	}
	return false
}

// Logo is one generated or derived logo image.
// ParentLogoID, GenerationType, BranchDepth and CreatedAt never change after
// creation; the remaining metadata is attached later by grading and export.
type Logo struct {
	ID                    string            `json:"id"`
	ProjectID             string            `json:"project_id"`
	ParentLogoID          *string           `json:"parent_logo_id,omitempty"`
	DirectionID           *string           `json:"direction_id,omitempty"`
	GenerationType        GenerationType    `json:"generation_type"`
	BranchDepth           int               `json:"branch_depth"`
	StoragePath           string            `json:"storage_path"`
	Prompt                string            `json:"prompt"`
	StyleLevers           map[string]string `json:"style_levers,omitempty"`
	RefinementInstruction *string           `json:"refinement_instruction,omitempty"`
	Scores                *Scores           `json:"scores,omitempty"`
	IsFavorite            bool              `json:"is_favorite"`
	IsArchived            bool              `json:"is_archived"`
	Mockups               map[string]string `json:"mockups,omitempty"`
	Accessibility         map[string]any    `json:"accessibility,omitempty"`
	FaviconTest           map[string]any    `json:"favicon_test,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// IsRoot reports whether the logo starts a derivation lineage.
func (l Logo) IsRoot() bool {
	return l.ParentLogoID == nil || *l.ParentLogoID == ""
}

// Parent returns the parent id, or "" for roots.
func (l Logo) Parent() string {
	if l.ParentLogoID == nil {
		return ""
	}
	return *l.ParentLogoID
}

// DimensionScore is a single graded dimension.
type DimensionScore struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// Scores is the grading result attached to a logo.
type Scores struct {
	Memorability DimensionScore `json:"memorability"`
	Scalability  DimensionScore `json:"scalability"`
	Relevance    DimensionScore `json:"relevance"`
	Uniqueness   DimensionScore `json:"uniqueness"`
	Simplicity   DimensionScore `json:"simplicity"`
	Composite    int            `json:"composite"`
	Summary      string         `json:"summary,omitempty"`
}

// LogoInput holds the fields needed to persist a new logo.
// The store assigns ID (when empty) and CreatedAt.
type LogoInput struct {
	ID                    string
	ProjectID             string
	ParentLogoID          *string
	DirectionID           *string
	GenerationType        GenerationType
	BranchDepth           int
	StoragePath           string
	Prompt                string
	StyleLevers           map[string]string
	RefinementInstruction *string
}

// LogoUpdate carries the mutable metadata fields. Nil fields are left unchanged.
type LogoUpdate struct {
	IsFavorite *bool
	IsArchived *bool
	Scores     *Scores
}
