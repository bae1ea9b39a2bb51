package models

// Task is one unit of batch work: a prompt to turn into a persisted logo.
type Task struct {
	PromptText            string            `json:"prompt_text" yaml:"prompt"`
	DirectionID           *string           `json:"direction_id,omitempty" yaml:"direction_id"`
	StyleLevers           map[string]string `json:"style_levers,omitempty" yaml:"style_levers"`
	SourceLogoID          *string           `json:"source_logo_id,omitempty" yaml:"source_logo_id"`
	GenerationType        GenerationType    `json:"generation_type,omitempty" yaml:"generation_type"`
	RefinementInstruction *string           `json:"refinement_instruction,omitempty" yaml:"refinement_instruction"`
}

// TaskError records a task that could not be turned into a logo.
type TaskError struct {
	PromptText   string `json:"prompt_text"`
	ErrorMessage string `json:"error_message"`
}

// BatchProgress is a point-in-time view of a running or finished batch.
type BatchProgress struct {
	Total             int         `json:"total"`
	Completed         int         `json:"completed"`
	CurrentPromptText string      `json:"current_prompt_text,omitempty"`
	Errors            []TaskError `json:"errors"`
}

// Succeeded returns the number of tasks that produced a logo.
func (p BatchProgress) Succeeded() int {
	return p.Completed - len(p.Errors)
}

// Percent returns completion as a rounded percentage, 0 for empty batches.
func (p BatchProgress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return (p.Completed*100 + p.Total/2) / p.Total
}
