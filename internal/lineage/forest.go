// Package lineage reconstructs logo derivation trees from flat logo records.
//
// Every function here is pure: it reads a snapshot of records and never
// mutates them, so it is safe to call from any goroutine.
package lineage

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// Node is a logo with its derived children attached.
type Node struct {
	models.Logo
	Children []*Node `json:"children"`
}

// Report describes what BuildForest could not place.
type Report struct {
	// Reachable is the number of records placed in the forest.
	Reachable int `json:"reachable"`
	// Orphans lists records whose parent chain never reaches a root, in input order.
	Orphans []string `json:"orphans,omitempty"`
}

// BuildForest assembles the derivation forest for one project's records.
//
// Roots and every sibling group are ordered by CreatedAt ascending (ID breaks
// ties), so the same record set always yields the same shape. Records whose
// declared parent is missing are not promoted to roots: they and their
// subtrees are left out and listed in the report.
func BuildForest(records []models.Logo) ([]*Node, Report) {
	children := childMap(records)

	var roots []int
	for i, r := range records {
		if r.IsRoot() {
			roots = append(roots, i)
		}
	}
	slices.SortStableFunc(roots, func(a, b int) int {
		return compareCreated(records[a], records[b])
	})

	attached := make([]bool, len(records))
	expanded := make(map[string]bool, len(records))
	forest := make([]*Node, 0, len(roots))
	var stack []*Node

	for _, i := range roots {
		n := &Node{Logo: records[i], Children: []*Node{}}
		attached[i] = true
		forest = append(forest, n)
		stack = append(stack, n)
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// A repeated id would otherwise re-expand the same child group forever.
		if expanded[n.ID] {
			continue
		}
		expanded[n.ID] = true

		for _, i := range children[n.ID] {
			child := &Node{Logo: records[i], Children: []*Node{}}
			attached[i] = true
			n.Children = append(n.Children, child)
			stack = append(stack, child)
		}
	}

	var report Report
	for i, ok := range attached {
		if ok {
			report.Reachable++
			continue
		}
		report.Orphans = append(report.Orphans, records[i].ID)
	}
	if len(report.Orphans) > 0 {
		slog.Debug("lineage records dropped from forest", "orphans", len(report.Orphans), "records", len(records))
	}

	return forest, report
}

// childMap groups non-root record indices by parent id, each group sorted by CreatedAt.
func childMap(records []models.Logo) map[string][]int {
	m := make(map[string][]int)
	for i, r := range records {
		if r.IsRoot() {
			continue
		}
		m[r.Parent()] = append(m[r.Parent()], i)
	}
	for _, group := range m {
		slices.SortStableFunc(group, func(a, b int) int {
			return compareCreated(records[a], records[b])
		})
	}
	return m
}

func compareCreated(a, b models.Logo) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Flatten returns the forest's logos in pre-order.
func Flatten(forest []*Node) []models.Logo {
	var out []models.Logo
	stack := make([]*Node, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n.Logo)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	return len(Flatten(forest))
}
