package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/logoforge/internal/db/memory"
	"github.com/raphaelgruber/logoforge/internal/imagegen"
	"github.com/raphaelgruber/logoforge/internal/llm"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/raphaelgruber/logoforge/internal/storage"
	"github.com/stretchr/testify/require"
)

func storedJob(t *testing.T, st *memory.Store, id string) models.BatchJob {
	t.Helper()
	j, err := st.GetBatchJob(context.Background(), id)
	require.NoError(t, err)
	return *j
}

// pngBytes starts with the PNG signature so content sniffing reports image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-data")

// fakeImages returns one PNG per call and fails for prompts containing "fail".
func fakeImages() imagegen.Generator {
	return imagegen.GeneratorFunc(func(_ context.Context, prompt string, _ imagegen.Options) ([]imagegen.Image, error) {
		if strings.Contains(prompt, "fail") {
			return nil, fmt.Errorf("provider rejected %q", prompt)
		}
		return []imagegen.Image{{Data: pngBytes, MIMEType: "image/png"}}, nil
	})
}

type fakePrompter struct {
	mu          sync.Mutex
	lastImage   []byte
	lastInstr   string
	directions  []models.Direction
	variations  []llm.Variation
	improvement []llm.Improvement
	weaknesses  []string
	scores      models.Scores
	analysis    llm.LogoAnalysis
	analyzed    int
}

func (f *fakePrompter) EngineerPrompts(_ context.Context, _ models.CompanyBrief, dirs []models.Direction) ([]models.Task, error) {
	var tasks []models.Task
	for _, d := range dirs {
		id := d.ID
		for i := range 2 {
			tasks = append(tasks, models.Task{
				PromptText:     fmt.Sprintf("%s prompt %d", d.Name, i),
				DirectionID:    &id,
				GenerationType: models.GenerationInitial,
			})
		}
	}
	return tasks, nil
}

func (f *fakePrompter) ProposeDirections(_ context.Context, _ models.CompanyBrief, _ string) ([]models.Direction, error) {
	return f.directions, nil
}

func (f *fakePrompter) BranchVariations(_ context.Context, _ models.Logo, _ models.CompanyBrief, image []byte, _ string, instruction string) ([]llm.Variation, error) {
	f.mu.Lock()
	f.lastImage, f.lastInstr = image, instruction
	f.mu.Unlock()
	return f.variations, nil
}

func (f *fakePrompter) RefinePrompt(_ context.Context, source models.Logo, image []byte, _ string, instruction string) (llm.Refinement, error) {
	f.mu.Lock()
	f.lastImage, f.lastInstr = image, instruction
	f.mu.Unlock()
	return llm.Refinement{PromptText: source.Prompt + ", " + instruction, ChangesApplied: instruction}, nil
}

func (f *fakePrompter) ImprovementPrompts(_ context.Context, image []byte, _ string, weaknesses []string, _ models.CompanyBrief) ([]llm.Improvement, error) {
	f.mu.Lock()
	f.lastImage, f.weaknesses = image, weaknesses
	f.mu.Unlock()
	return f.improvement, nil
}

func (f *fakePrompter) ExtractBrief(_ context.Context, text string) (llm.BriefExtraction, error) {
	return llm.BriefExtraction{CompanyBrief: models.CompanyBrief{CompanyName: text}}, nil
}

func (f *fakePrompter) GradeLogo(_ context.Context, image []byte, _ string, _ models.CompanyBrief) (models.Scores, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastImage = image
	return f.scores, nil
}

func (f *fakePrompter) AnalyzeLogo(_ context.Context, image []byte, _ string) (llm.LogoAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastImage = image
	f.analyzed++
	return f.analysis, nil
}

// env wires every service over one memStore and a LocalStore in a temp dir.
type env struct {
	store      *memory.Store
	files      *storage.LocalStore
	prompter   *fakePrompter
	logos      *LogoService
	jobs       *JobManager
	generation *GenerationService
	refinement *RefinementService
	projects   *ProjectService
	lineage    *LineageService
	grading    *GradingService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	files, err := storage.NewLocal(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	st := memory.New()
	pr := &fakePrompter{}
	logos := NewLogoService(st, fakeImages(), files, "1:1")
	jobs := NewJobManager(2, st, nil)
	return &env{
		store:      st,
		files:      files,
		prompter:   pr,
		logos:      logos,
		jobs:       jobs,
		generation: NewGenerationService(st, logos, pr, jobs),
		refinement: NewRefinementService(st, st, logos, pr, jobs),
		projects:   NewProjectService(st, st, pr),
		lineage:    NewLineageService(st),
		grading:    NewGradingService(st, st, logos, pr, jobs),
	}
}

func (e *env) project(t *testing.T) *models.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), "Acme", models.CompanyBrief{CompanyName: "Acme"})
	require.NoError(t, err)
	return p
}

func (e *env) root(t *testing.T, projectID, prompt string) *models.Logo {
	t.Helper()
	l, err := e.logos.Generate(context.Background(), projectID, models.Task{PromptText: prompt})
	require.NoError(t, err)
	return l
}

func waitJob(t *testing.T, job *Job) models.BatchJob {
	t.Helper()
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("job %s did not finish", job.ID)
	}
	return job.Snapshot()
}

func ptr[T any](v T) *T { return &v }
