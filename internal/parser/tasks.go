package parser

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// ErrNoTasks is returned for task files that contain no tasks.
var ErrNoTasks = errors.New("no tasks in file")

type taskFile struct {
	Defaults models.Task   `yaml:"defaults"`
	Tasks    []models.Task `yaml:"tasks"`
}

// ParseTasks reads a batch task file. Both a bare list of tasks and a
// document with "defaults" and "tasks" keys are accepted; defaults fill the
// fields a task leaves empty.
//
//	defaults:
//	  direction_id: dir-1
//	tasks:
//	  - prompt: minimalist fox mark, professional logo design
//	  - prompt: geometric fox head
//	    style_levers: {palette: warm}
func ParseTasks(data []byte) ([]models.Task, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrNoTasks
	}

	var file taskFile
	root := doc.Content[0]
	target := any(&file)
	if root.Kind == yaml.SequenceNode {
		target = &file.Tasks
	}
	if err := root.Decode(target); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}

	if len(file.Tasks) == 0 {
		return nil, ErrNoTasks
	}

	tasks := make([]models.Task, len(file.Tasks))
	for i, t := range file.Tasks {
		t = withDefaults(t, file.Defaults)
		t.PromptText = strings.TrimSpace(t.PromptText)
		if t.PromptText == "" {
			return nil, fmt.Errorf("task %d: prompt is required", i+1)
		}
		if t.GenerationType != "" && !t.GenerationType.Valid() {
			return nil, fmt.Errorf("task %d: unknown generation_type %q", i+1, t.GenerationType)
		}
		tasks[i] = t
	}
	return tasks, nil
}

func withDefaults(t, d models.Task) models.Task {
	if t.DirectionID == nil {
		t.DirectionID = d.DirectionID
	}
	if t.SourceLogoID == nil {
		t.SourceLogoID = d.SourceLogoID
	}
	if t.GenerationType == "" {
		t.GenerationType = d.GenerationType
	}
	if t.RefinementInstruction == nil {
		t.RefinementInstruction = d.RefinementInstruction
	}
	if len(d.StyleLevers) > 0 {
		levers := make(map[string]string, len(d.StyleLevers)+len(t.StyleLevers))
		for k, v := range d.StyleLevers {
			levers[k] = v
		}
		for k, v := range t.StyleLevers {
			levers[k] = v
		}
		t.StyleLevers = levers
	}
	return t
}
