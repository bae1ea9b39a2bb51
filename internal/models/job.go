package models

import "time"

// JobKind names the flow that started a batch job.
type JobKind string

const (
	JobKindGenerate JobKind = "generate"
	JobKindBranch   JobKind = "branch"
	JobKindRefine   JobKind = "refine"
	JobKindImprove  JobKind = "improve"
	JobKindGrade    JobKind = "grade"
)

// JobStatus represents the state of a batch job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further progress will be made.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// BatchJob is the persisted record of one batch run.
type BatchJob struct {
	ID            string      `json:"id"`
	ProjectID     string      `json:"project_id"`
	Kind          JobKind     `json:"kind"`
	Status        JobStatus   `json:"status"`
	Total         int         `json:"total"`
	Completed     int         `json:"completed"`
	CurrentPrompt string      `json:"current_prompt,omitempty"`
	Errors        []TaskError `json:"errors"`
	LogoIDs       []string    `json:"logo_ids"`
	Error         *string     `json:"error,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}
