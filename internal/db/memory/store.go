// Package memory is an in-process record store with the same behavior as the
// SurrealDB client. It backs tests and LOGOFORGE_DATABASE=memory runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/logoforge/internal/db"
	"github.com/raphaelgruber/logoforge/internal/models"
)

// Store holds projects, directions, logos and batch jobs in maps.
type Store struct {
	mu         sync.Mutex
	last       time.Time
	projects   map[string]models.Project
	directions map[string]models.Direction
	logos      map[string]models.Logo
	jobs       map[string]models.BatchJob
}

// New returns an empty store.
func New() *Store {
	return &Store{
		projects:   map[string]models.Project{},
		directions: map[string]models.Direction{},
		logos:      map[string]models.Logo{},
		jobs:       map[string]models.BatchJob{},
	}
}

// now returns a strictly increasing timestamp so creation order is total.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// WipeData removes every record.
func (s *Store) WipeData(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.projects)
	clear(s.directions)
	clear(s.logos)
	clear(s.jobs)
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, db.ErrNotFound)
}

// CreateProject stores a new project.
func (s *Store) CreateProject(_ context.Context, name string, brief models.CompanyBrief) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := models.Project{ID: uuid.NewString(), Name: name, CompanyBrief: brief, CreatedAt: now, UpdatedAt: now}
	s.projects[p.ID] = p
	return &p, nil
}

// GetProject returns a project.
func (s *Store) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	return &p, nil
}

// ListProjects returns projects, most recently updated first.
func (s *Store) ListProjects(context.Context) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Collect(maps.Values(s.projects))
	slices.SortFunc(out, func(a, b models.Project) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

// UpdateProject applies the non-nil fields of upd. An empty winner id clears it.
func (s *Store) UpdateProject(_ context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.CompanyBrief != nil {
		p.CompanyBrief = *upd.CompanyBrief
	}
	if upd.PhaseProgress != nil {
		p.PhaseProgress = *upd.PhaseProgress
	}
	if upd.WinnerLogoID != nil {
		if *upd.WinnerLogoID == "" {
			p.WinnerLogoID = nil
		} else {
			w := *upd.WinnerLogoID
			p.WinnerLogoID = &w
		}
	}
	p.UpdatedAt = s.now()
	s.projects[id] = p
	return &p, nil
}

// ReplaceDirections swaps a project's directions for dirs, numbering them
// in order.
func (s *Store) ReplaceDirections(_ context.Context, projectID string, dirs []models.Direction) ([]models.Direction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return nil, notFound("project", projectID)
	}
	for id, d := range s.directions {
		if d.ProjectID == projectID {
			delete(s.directions, id)
		}
	}
	out := make([]models.Direction, 0, len(dirs))
	for i, d := range dirs {
		d.ID = uuid.NewString()
		d.ProjectID = projectID
		d.SortOrder = i
		d.CreatedAt = s.now()
		s.directions[d.ID] = d
		out = append(out, d)
	}
	return out, nil
}

// ListDirections returns a project's directions in sort order.
func (s *Store) ListDirections(_ context.Context, projectID string) ([]models.Direction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Direction{}
	for _, d := range s.directions {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b models.Direction) int { return a.SortOrder - b.SortOrder })
	return out, nil
}

// SetDirectionSelected flips the selected flag.
func (s *Store) SetDirectionSelected(_ context.Context, id string, selected bool) (*models.Direction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.directions[id]
	if !ok {
		return nil, notFound("direction", id)
	}
	d.Selected = selected
	s.directions[id] = d
	return &d, nil
}

// CreateLogo stores a logo. An empty ID is assigned.
func (s *Store) CreateLogo(_ context.Context, in models.LogoInput) (*models.Logo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ID == "" {
		in.ID = db.NewLogoID()
	}
	if _, ok := s.logos[in.ID]; ok {
		return nil, fmt.Errorf("logo %s: %w", in.ID, db.ErrAlreadyExists)
	}
	if !in.GenerationType.Valid() {
		return nil, fmt.Errorf("invalid generation type %q", in.GenerationType)
	}
	l := models.Logo{
		ID:                    in.ID,
		ProjectID:             in.ProjectID,
		ParentLogoID:          in.ParentLogoID,
		DirectionID:           in.DirectionID,
		GenerationType:        in.GenerationType,
		BranchDepth:           in.BranchDepth,
		StoragePath:           in.StoragePath,
		Prompt:                in.Prompt,
		StyleLevers:           maps.Clone(in.StyleLevers),
		RefinementInstruction: in.RefinementInstruction,
		CreatedAt:             s.now(),
	}
	s.logos[l.ID] = l
	return &l, nil
}

// GetLogo returns a logo.
func (s *Store) GetLogo(_ context.Context, id string) (*models.Logo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logos[id]
	if !ok {
		return nil, notFound("logo", id)
	}
	return &l, nil
}

// ListProjectLogos returns a project's logos oldest first.
func (s *Store) ListProjectLogos(_ context.Context, projectID string, includeArchived bool) ([]models.Logo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Logo{}
	for _, l := range s.logos {
		if l.ProjectID != projectID || (l.IsArchived && !includeArchived) {
			continue
		}
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b models.Logo) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// UpdateLogo applies the non-nil fields of upd.
func (s *Store) UpdateLogo(_ context.Context, id string, upd models.LogoUpdate) (*models.Logo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logos[id]
	if !ok {
		return nil, notFound("logo", id)
	}
	if upd.IsFavorite != nil {
		l.IsFavorite = *upd.IsFavorite
	}
	if upd.IsArchived != nil {
		l.IsArchived = *upd.IsArchived
	}
	if upd.Scores != nil {
		sc := *upd.Scores
		l.Scores = &sc
	}
	s.logos[id] = l
	return &l, nil
}

// CreateBatchJob stores a pending job.
func (s *Store) CreateBatchJob(_ context.Context, id, projectID string, kind models.JobKind, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; ok {
		return fmt.Errorf("batch job %s: %w", id, db.ErrAlreadyExists)
	}
	s.jobs[id] = models.BatchJob{
		ID:        id,
		ProjectID: projectID,
		Kind:      kind,
		Status:    models.JobStatusPending,
		Total:     total,
		Errors:    []models.TaskError{},
		LogoIDs:   []string{},
		StartedAt: s.now(),
	}
	return nil
}

// UpdateBatchJobProgress records progress and marks the job running.
func (s *Store) UpdateBatchJobProgress(_ context.Context, id string, p models.BatchProgress, logoIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked(id, models.JobStatusRunning, p, logoIDs)
}

// CompleteBatchJob records the final progress.
func (s *Store) CompleteBatchJob(_ context.Context, id string, p models.BatchProgress, logoIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked(id, models.JobStatusCompleted, p, logoIDs)
}

func (s *Store) progressLocked(id string, status models.JobStatus, p models.BatchProgress, logoIDs []string) error {
	j, ok := s.jobs[id]
	if !ok {
		return notFound("batch job", id)
	}
	j.Status = status
	j.Total = p.Total
	j.Completed = p.Completed
	j.CurrentPrompt = p.CurrentPromptText
	j.Errors = slices.Clone(p.Errors)
	if j.Errors == nil {
		j.Errors = []models.TaskError{}
	}
	j.LogoIDs = slices.Clone(logoIDs)
	if j.LogoIDs == nil {
		j.LogoIDs = []string{}
	}
	if status.Terminal() {
		now := s.now()
		j.CompletedAt = &now
		j.CurrentPrompt = ""
	}
	s.jobs[id] = j
	return nil
}

// FailBatchJob marks a job failed with reason.
func (s *Store) FailBatchJob(_ context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return notFound("batch job", id)
	}
	now := s.now()
	j.Status = models.JobStatusFailed
	j.Error = &reason
	j.CompletedAt = &now
	s.jobs[id] = j
	return nil
}

// GetBatchJob returns a job.
func (s *Store) GetBatchJob(_ context.Context, id string) (*models.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, notFound("batch job", id)
	}
	return &j, nil
}

// ListBatchJobs returns jobs newest first. An empty projectID lists all.
func (s *Store) ListBatchJobs(_ context.Context, projectID string, limit int) ([]models.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.BatchJob{}
	for _, j := range s.jobs {
		if projectID == "" || j.ProjectID == projectID {
			out = append(out, j)
		}
	}
	slices.SortFunc(out, func(a, b models.BatchJob) int { return b.StartedAt.Compare(a.StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetIncompleteJobs returns pending and running jobs.
func (s *Store) GetIncompleteJobs(context.Context) ([]models.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BatchJob
	for _, j := range s.jobs {
		if !j.Status.Terminal() {
			out = append(out, j)
		}
	}
	return out, nil
}
