package types

import "time"

// WorkflowPhase is the coarse project phase inferred from recent activity.
type WorkflowPhase string

const (
	PhasePlanning    WorkflowPhase = "planning"
	PhaseDevelopment WorkflowPhase = "development"
	PhaseReview      WorkflowPhase = "review"
	PhaseDeployment  WorkflowPhase = "deployment"
	PhaseUnknown     WorkflowPhase = "unknown"
)

// ProjectState captures the external signals the scorer correlates suggestions
// against. All fields are best-effort; zero values mean "unknown".
type ProjectState struct {
	Phase                 WorkflowPhase `json:"phase"`
	HasUncommittedChanges bool          `json:"has_uncommitted_changes"`
	FailingTests          bool          `json:"failing_tests"`
	WorkflowActive        string        `json:"workflow_active,omitempty"`
}

// SessionContext is the ephemeral per-invocation view of a session. The engine
// only consumes it; it is rebuilt from external signals on every call.
type SessionContext struct {
	AgentID      string       `json:"agent_id"`
	LastCommand  string       `json:"last_command"`
	LastCommands []string     `json:"last_commands"`
	StoryPath    string       `json:"story_path,omitempty"`
	Branch       string       `json:"branch,omitempty"`
	ProjectState ProjectState `json:"project_state"`
}

// SuggestionSource indicates how a suggestion was produced.
type SuggestionSource string

const (
	SourceWorkflow      SuggestionSource = "workflow"
	SourcePattern       SuggestionSource = "learned_pattern"
	SourceDeterministic SuggestionSource = "deterministic"
	SourceFallback      SuggestionSource = "fallback"
)

// Suggestion is a single ranked next-action candidate.
type Suggestion struct {
	Command     string           `json:"command"`
	Args        string           `json:"args,omitempty"`
	Description string           `json:"description,omitempty"`
	Confidence  float64          `json:"confidence"`
	Priority    int              `json:"priority"`
	Source      SuggestionSource `json:"source"`
}

// SuggestionResult is the payload returned to the presentation layer.
type SuggestionResult struct {
	Workflow     string       `json:"workflow,omitempty"`
	CurrentState string       `json:"current_state,omitempty"`
	Confidence   float64      `json:"confidence"`
	Suggestions  []Suggestion `json:"suggestions"`
	IsUncertain  bool         `json:"is_uncertain"`
	Message      string       `json:"message,omitempty"`
	GeneratedAt  time.Time    `json:"generated_at"`
}
