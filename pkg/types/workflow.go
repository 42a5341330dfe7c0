// Package types defines the shared data model for the workflow intelligence
// engine: workflow definitions, task graphs, session context, learned patterns,
// gotchas and quality feedback records.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// NextStep is a candidate follow-up action attached to a workflow transition.
type NextStep struct {
	Command      string `json:"command" yaml:"command"`
	ArgsTemplate string `json:"args_template,omitempty" yaml:"args_template,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority     int    `json:"priority" yaml:"priority"`
}

// Transition describes how a workflow moves out of a named state: the command
// that triggers it, the confidence the definition author assigned, and the
// candidate next steps ordered by priority.
type Transition struct {
	Trigger    string     `json:"trigger" yaml:"trigger"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
	NextSteps  []NextStep `json:"next_steps" yaml:"next_steps"`
}

// Workflow is a named graph of states and transitions. It is immutable once
// loaded; the registry replaces the whole set on reload.
type Workflow struct {
	Name        string                `json:"name" yaml:"name"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Transitions map[string]Transition `json:"transitions" yaml:"transitions"`
}

// Validate checks a workflow definition at the load boundary so downstream
// code can assume well-formed data.
func (w *Workflow) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("workflow has no name")
	}
	if len(w.Transitions) == 0 {
		return fmt.Errorf("workflow %q has no transitions", w.Name)
	}
	for state, tr := range w.Transitions {
		if strings.TrimSpace(tr.Trigger) == "" {
			return fmt.Errorf("workflow %q state %q has no trigger", w.Name, state)
		}
		if tr.Confidence < 0 || tr.Confidence > 1 {
			return fmt.Errorf("workflow %q state %q confidence %.2f out of range [0,1]", w.Name, state, tr.Confidence)
		}
	}
	return nil
}

// SortedNextSteps returns the next steps for a state ordered by ascending
// priority. The returned slice is a copy.
func (w *Workflow) SortedNextSteps(state string) []NextStep {
	tr, ok := w.Transitions[state]
	if !ok {
		return nil
	}
	steps := make([]NextStep, len(tr.NextSteps))
	copy(steps, tr.NextSteps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority < steps[j].Priority
	})
	return steps
}

// WorkflowMatch is the result of matching a command history against the
// registry: the best workflow, how many triggers matched, and which commands
// matched them.
type WorkflowMatch struct {
	Name            string   `json:"name"`
	Score           int      `json:"score"`
	MatchedCommands []string `json:"matched_commands"`
}
