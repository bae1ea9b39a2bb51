package cli

import (
	"strings"
	"testing"

	"github.com/raphaelgruber/logoforge/internal/client"
	"github.com/raphaelgruber/logoforge/internal/lineage"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestLogoLabel(t *testing.T) {
	tests := []struct {
		name    string
		logo    models.Logo
		winner  string
		want    []string
		notWant []string
	}{
		{
			name: "initial",
			logo: models.Logo{ID: "logo-1", GenerationType: models.GenerationInitial, Prompt: "fox mark"},
			want: []string{"logo-1", "[initial]", "fox mark"},
		},
		{
			name:    "refine shows instruction",
			logo:    models.Logo{ID: "logo-2", GenerationType: models.GenerationRefine, Prompt: "long prompt", RefinementInstruction: ptr("bigger icon")},
			want:    []string{"[refine]", "bigger icon"},
			notWant: []string{"long prompt"},
		},
		{
			name:   "flags",
			logo:   models.Logo{ID: "logo-3", IsFavorite: true, IsArchived: true, Scores: &models.Scores{Composite: 84}},
			winner: "logo-3",
			want:   []string{"★", "♥", "archived", "84/100"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := logoLabel(tt.logo, tt.winner)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, got, w)
			}
		})
	}
}

func TestRenderForest(t *testing.T) {
	child := &lineage.Node{Logo: models.Logo{ID: "child", GenerationType: models.GenerationBranch, Prompt: "warm palette", ParentLogoID: ptr("root-a")}}
	forest := &client.Tree{
		Forest: []*lineage.Node{
			{Logo: models.Logo{ID: "root-a", GenerationType: models.GenerationInitial, Prompt: "fox"}, Children: []*lineage.Node{child}},
			{Logo: models.Logo{ID: "root-b", GenerationType: models.GenerationImprove, Prompt: "owl"}},
		},
		Report: lineage.Report{Reachable: 3, Orphans: []string{"lost"}},
	}

	out := renderForest("Acme", forest, "child")
	lines := strings.Split(out, "\n")

	assert.Contains(t, lines[0], "Acme")
	assert.Contains(t, out, "root-a [initial] fox")
	assert.Contains(t, out, "child [branch] warm palette ★")
	assert.Contains(t, out, "root-b [improve] owl")
	assert.Less(t, strings.Index(out, "root-a"), strings.Index(out, "child"))
	assert.Less(t, strings.Index(out, "child"), strings.Index(out, "root-b"))
	assert.Contains(t, out, "3 logos, 1 orphaned: lost")

	empty := renderForest("Empty", &client.Tree{}, "")
	assert.Equal(t, "Empty: no logos\n\n0 logos\n", empty)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "0123456789abc", shortID("0123456789abcdef"))
}
