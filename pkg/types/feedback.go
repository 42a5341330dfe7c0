package types

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackOutcome is the taxonomy a quality verdict is translated into.
type FeedbackOutcome string

const (
	OutcomeSuccess FeedbackOutcome = "success"
	OutcomePartial FeedbackOutcome = "partial"
	OutcomeFailure FeedbackOutcome = "failure"
)

// FeedbackSeverity qualifies a failure outcome.
type FeedbackSeverity string

const (
	SeverityNone     FeedbackSeverity = "none"
	SeverityMinor    FeedbackSeverity = "minor"
	SeverityMajor    FeedbackSeverity = "major"
	SeverityCritical FeedbackSeverity = "critical"
)

// FeedbackRecord is one entry in the append-only feedback log.
type FeedbackRecord struct {
	ID        string           `json:"id"`
	PatternID string           `json:"pattern_id"`
	Outcome   FeedbackOutcome  `json:"outcome"`
	Severity  FeedbackSeverity `json:"severity"`
	Issues    []string         `json:"issues,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewFeedbackRecord creates a feedback record with a generated id.
func NewFeedbackRecord(patternID string, outcome FeedbackOutcome, severity FeedbackSeverity, issues []string) *FeedbackRecord {
	return &FeedbackRecord{
		ID:        uuid.New().String(),
		PatternID: patternID,
		Outcome:   outcome,
		Severity:  severity,
		Issues:    issues,
		Timestamp: time.Now().UTC(),
	}
}

// PatternStats is the derived, mutable aggregate kept per pattern id. It is
// recomputable from the feedback log.
type PatternStats struct {
	TotalExecutions     int `json:"total_executions"`
	Successes           int `json:"successes"`
	Failures            int `json:"failures"`
	ConsecutiveFailures int `json:"consecutive_failures"`
}

// Record folds one outcome into the aggregate. Partial outcomes count as an
// execution but leave the consecutive-failure streak untouched.
func (s *PatternStats) Record(outcome FeedbackOutcome) {
	s.TotalExecutions++
	switch outcome {
	case OutcomeSuccess:
		s.Successes++
		s.ConsecutiveFailures = 0
	case OutcomeFailure:
		s.Failures++
		s.ConsecutiveFailures++
	case OutcomePartial:
	}
}

// QAVerdict is the externally-produced quality-gate result the feedback
// processor consumes.
type QAVerdict struct {
	GateDecision      string   `json:"gate_decision"` // pass, concerns, fail, waived
	BlockingIssues    []string `json:"blocking_issues,omitempty"`
	SecurityChecklist []string `json:"security_checklist,omitempty"`
	Testing           string   `json:"testing,omitempty"`
}

// QAResult summarizes what processing a verdict changed.
type QAResult struct {
	PatternsAffected []string     `json:"patterns_affected"`
	GotchasCreated   []string     `json:"gotchas_created"`
	Suggestions      []Suggestion `json:"suggestions"`
	Actions          []string     `json:"actions"`
}
