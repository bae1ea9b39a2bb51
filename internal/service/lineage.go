package service

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/logoforge/internal/lineage"
	"github.com/raphaelgruber/logoforge/internal/models"
)

// Tree is a project's logo forest with its structural report.
type Tree struct {
	Forest []*lineage.Node `json:"forest"`
	Report lineage.Report  `json:"report"`
}

// Flow is a positioned node/edge rendering of a project's forest.
type Flow struct {
	Nodes []lineage.FlowNode `json:"nodes"`
	Edges []lineage.FlowEdge `json:"edges"`
}

// LineageService answers lineage queries over a project's logos.
type LineageService struct {
	logos  LogoStore
	layout lineage.LayoutOptions
}

// NewLineageService creates a LineageService using the default layout.
func NewLineageService(logos LogoStore) *LineageService {
	return &LineageService{logos: logos, layout: lineage.DefaultLayout}
}

// Tree builds the project's forest. Archived logos are left out unless
// includeArchived is set, which also orphans their children.
func (s *LineageService) Tree(ctx context.Context, projectID string, includeArchived bool) (Tree, error) {
	records, err := s.logos.ListProjectLogos(ctx, projectID, includeArchived)
	if err != nil {
		return Tree{}, fmt.Errorf("list project logos: %w", err)
	}
	forest, report := lineage.BuildForest(records)
	if forest == nil {
		forest = []*lineage.Node{}
	}
	return Tree{Forest: forest, Report: report}, nil
}

// Flow lays out the project's forest for graph rendering.
func (s *LineageService) Flow(ctx context.Context, projectID string, includeArchived bool) (Flow, error) {
	tree, err := s.Tree(ctx, projectID, includeArchived)
	if err != nil {
		return Flow{}, err
	}
	nodes, edges := lineage.Layout(tree.Forest, s.layout)
	return Flow{Nodes: nodes, Edges: edges}, nil
}

// Timeline returns the project's non-archived logos oldest first.
func (s *LineageService) Timeline(ctx context.Context, projectID string) ([]models.Logo, error) {
	records, err := s.logos.ListProjectLogos(ctx, projectID, false)
	if err != nil {
		return nil, fmt.Errorf("list project logos: %w", err)
	}
	return lineage.Timeline(records), nil
}

// Ancestors returns the chain from the root down to logoID's parent.
// Archived logos are included so the chain is never cut short.
func (s *LineageService) Ancestors(ctx context.Context, logoID string) ([]models.Logo, error) {
	records, err := s.projectRecords(ctx, logoID)
	if err != nil {
		return nil, err
	}
	return lineage.Ancestors(logoID, records), nil
}

// Descendants returns every logo derived from logoID, archived ones included.
func (s *LineageService) Descendants(ctx context.Context, logoID string) ([]models.Logo, error) {
	records, err := s.projectRecords(ctx, logoID)
	if err != nil {
		return nil, err
	}
	return lineage.Descendants(logoID, records), nil
}

func (s *LineageService) projectRecords(ctx context.Context, logoID string) ([]models.Logo, error) {
	logo, err := s.logos.GetLogo(ctx, logoID)
	if err != nil {
		return nil, fmt.Errorf("get logo: %w", err)
	}
	records, err := s.logos.ListProjectLogos(ctx, logo.ProjectID, true)
	if err != nil {
		return nil, fmt.Errorf("list project logos: %w", err)
	}
	return records, nil
}
