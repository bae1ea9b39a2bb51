package memory

import (
	"context"
	"testing"

	"github.com/raphaelgruber/logoforge/internal/db"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogosOrderedByCreation(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "Acme", models.CompanyBrief{})
	require.NoError(t, err)

	var ids []string
	for range 5 {
		l, err := s.CreateLogo(ctx, models.LogoInput{ProjectID: p.ID, GenerationType: models.GenerationInitial, Prompt: "x"})
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}
	yes := true
	_, err = s.UpdateLogo(ctx, ids[2], models.LogoUpdate{IsArchived: &yes})
	require.NoError(t, err)

	all, err := s.ListProjectLogos(ctx, p.ID, true)
	require.NoError(t, err)
	got := make([]string, len(all))
	for i, l := range all {
		got[i] = l.ID
	}
	assert.Equal(t, ids, got)

	visible, err := s.ListProjectLogos(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Len(t, visible, 4)
}

func TestCreateLogoRejects(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateLogo(ctx, models.LogoInput{ID: "a", GenerationType: models.GenerationInitial})
	require.NoError(t, err)
	_, err = s.CreateLogo(ctx, models.LogoInput{ID: "a", GenerationType: models.GenerationInitial})
	assert.ErrorIs(t, err, db.ErrAlreadyExists)
	_, err = s.CreateLogo(ctx, models.LogoInput{ID: "b", GenerationType: "remix"})
	assert.Error(t, err)
}

func TestNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetProject(ctx, "x")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.GetLogo(ctx, "x")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.SetDirectionSelected(ctx, "x", true)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, s.FailBatchJob(ctx, "x", "r"), db.ErrNotFound)
}

func TestBatchJobLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateBatchJob(ctx, "j1", "p1", models.JobKindGenerate, 3))
	require.NoError(t, s.CreateBatchJob(ctx, "j2", "p1", models.JobKindBranch, 1))

	incomplete, err := s.GetIncompleteJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, incomplete, 2)

	require.NoError(t, s.UpdateBatchJobProgress(ctx, "j1", models.BatchProgress{Total: 3, Completed: 1, CurrentPromptText: "p"}, []string{"l1"}))
	j, err := s.GetBatchJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, j.Status)
	assert.Equal(t, "p", j.CurrentPrompt)

	require.NoError(t, s.CompleteBatchJob(ctx, "j1", models.BatchProgress{Total: 3, Completed: 3}, []string{"l1", "l2"}))
	j, err = s.GetBatchJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, j.Status)
	assert.NotNil(t, j.CompletedAt)
	assert.Equal(t, []string{"l1", "l2"}, j.LogoIDs)

	jobs, err := s.ListBatchJobs(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j2", jobs[0].ID)

	incomplete, err = s.GetIncompleteJobs(ctx)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, "j2", incomplete[0].ID)
}

func TestWinnerClears(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "Acme", models.CompanyBrief{})
	require.NoError(t, err)

	w := "logo-1"
	p, err = s.UpdateProject(ctx, p.ID, models.ProjectUpdate{WinnerLogoID: &w})
	require.NoError(t, err)
	require.NotNil(t, p.WinnerLogoID)

	empty := ""
	p, err = s.UpdateProject(ctx, p.ID, models.ProjectUpdate{WinnerLogoID: &empty})
	require.NoError(t, err)
	assert.Nil(t, p.WinnerLogoID)
}
