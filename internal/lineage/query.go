package lineage

import (
	"slices"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// Ancestors returns the parent chain of logoID, oldest ancestor first and the
// immediate parent last. Unknown ids and roots yield an empty slice. The walk
// stops at a dangling parent reference and never takes more steps than there
// are records, so corrupted cyclic data cannot hang it.
func Ancestors(logoID string, records []models.Logo) []models.Logo {
	byID := make(map[string]models.Logo, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	ancestors := []models.Logo{}
	current, ok := byID[logoID]
	if !ok {
		return ancestors
	}

	for steps := 0; steps < len(records) && !current.IsRoot(); steps++ {
		parent, ok := byID[current.Parent()]
		if !ok {
			break
		}
		ancestors = append(ancestors, parent)
		current = parent
	}

	slices.Reverse(ancestors)
	return ancestors
}

// Descendants returns every logo derived from logoID, directly or transitively.
// The result never contains logoID itself or duplicates. Order is depth-first
// with siblings by CreatedAt, but callers should not rely on it.
func Descendants(logoID string, records []models.Logo) []models.Logo {
	children := childMap(records)

	descendants := []models.Logo{}
	visited := map[string]bool{logoID: true}
	stack := []string{logoID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		group := children[id]
		for i := len(group) - 1; i >= 0; i-- {
			child := records[group[i]]
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			descendants = append(descendants, child)
			stack = append(stack, child.ID)
		}
	}

	return descendants
}

// ExcludeArchived returns the records that are not soft-deleted.
func ExcludeArchived(records []models.Logo) []models.Logo {
	out := make([]models.Logo, 0, len(records))
	for _, r := range records {
		if !r.IsArchived {
			out = append(out, r)
		}
	}
	return out
}

// Timeline returns the non-archived records in creation order.
func Timeline(records []models.Logo) []models.Logo {
	out := ExcludeArchived(records)
	slices.SortStableFunc(out, compareCreated)
	return out
}

// BranchDepth returns the depth a new logo derived from parent must carry:
// zero without a parent, otherwise one more than the parent's.
func BranchDepth(parent *models.Logo) int {
	if parent == nil {
		return 0
	}
	return parent.BranchDepth + 1
}
