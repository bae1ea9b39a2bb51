package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/logoforge/internal/imagegen"
	"github.com/raphaelgruber/logoforge/internal/db/memory"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/raphaelgruber/logoforge/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogoService_GenerateRoot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.project(t)

	logo, err := e.logos.Generate(ctx, p.ID, models.Task{PromptText: "a fox", StyleLevers: map[string]string{"style": "flat"}})
	require.NoError(t, err)

	assert.True(t, logo.IsRoot())
	assert.Equal(t, 0, logo.BranchDepth)
	assert.Equal(t, models.GenerationInitial, logo.GenerationType)
	assert.Equal(t, "a fox", logo.Prompt)
	assert.Equal(t, "http://files.test/"+storage.ObjectPath(p.ID, logo.ID), logo.StoragePath)

	data, err := e.files.Download(ctx, storage.ObjectPath(p.ID, logo.ID))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestLogoService_GenerateChildDepth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.project(t)

	root := e.root(t, p.ID, "root")
	child, err := e.logos.Generate(ctx, p.ID, models.Task{PromptText: "child", SourceLogoID: &root.ID})
	require.NoError(t, err)
	grandchild, err := e.logos.Generate(ctx, p.ID, models.Task{
		PromptText:     "grandchild",
		SourceLogoID:   &child.ID,
		GenerationType: models.GenerationRefine,
	})
	require.NoError(t, err)

	assert.Equal(t, root.ID, child.Parent())
	assert.Equal(t, 1, child.BranchDepth)
	assert.Equal(t, models.GenerationBranch, child.GenerationType)
	assert.Equal(t, child.ID, grandchild.Parent())
	assert.Equal(t, 2, grandchild.BranchDepth)
	assert.Equal(t, models.GenerationRefine, grandchild.GenerationType)
}

func TestLogoService_GenerateInvalid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.project(t)
	other := e.project(t)
	foreign := e.root(t, other.ID, "elsewhere")

	tests := []struct {
		name    string
		project string
		task    models.Task
		wantErr error
	}{
		{"empty project", "", models.Task{PromptText: "x"}, ErrInvalidInput},
		{"empty prompt", p.ID, models.Task{PromptText: "  "}, ErrInvalidInput},
		{"unknown type", p.ID, models.Task{PromptText: "x", GenerationType: "remix"}, ErrInvalidInput},
		{"missing parent", p.ID, models.Task{PromptText: "x", SourceLogoID: ptr("nope")}, ErrNotFound},
		{"parent in other project", p.ID, models.Task{PromptText: "x", SourceLogoID: &foreign.ID}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.logos.Generate(ctx, tt.project, tt.task)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type imageSpy struct {
	mu       sync.Mutex
	outcomes []bool
}

func (s *imageSpy) ImageGenerated(success bool, _ time.Duration) {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, success)
	s.mu.Unlock()
}

func TestLogoService_ImageFailureCreatesNothing(t *testing.T) {
	files, err := storage.NewLocal(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	st := memory.New()
	spy := &imageSpy{}
	svc := NewLogoService(st, fakeImages(), files, "1:1", spy)
	ctx := context.Background()
	p, _ := st.CreateProject(ctx, "Acme", models.CompanyBrief{})

	_, err = svc.Generate(ctx, p.ID, models.Task{PromptText: "please fail"})
	require.Error(t, err)
	_, err = svc.Generate(ctx, p.ID, models.Task{PromptText: "fine"})
	require.NoError(t, err)

	logos, _ := st.ListProjectLogos(ctx, p.ID, true)
	assert.Len(t, logos, 1)
	assert.Equal(t, []bool{false, true}, spy.outcomes)
}

func TestLogoService_NoImages(t *testing.T) {
	files, err := storage.NewLocal(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	st := memory.New()
	empty := imagegen.GeneratorFunc(func(context.Context, string, imagegen.Options) ([]imagegen.Image, error) {
		return nil, nil
	})
	svc := NewLogoService(st, empty, files, "1:1")
	p, _ := st.CreateProject(context.Background(), "Acme", models.CompanyBrief{})

	_, err = svc.Generate(context.Background(), p.ID, models.Task{PromptText: "x"})
	assert.True(t, errors.Is(err, imagegen.ErrNoImages))
}
