package learning

import (
	"fmt"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/pkg/types"
)

// mergeConfidenceBoost is the nudge an existing pattern receives when a fresh
// capture merges into it.
const mergeConfidenceBoost = 0.1

// LearnResult reports what happened to a captured sequence.
type LearnResult struct {
	Stored   bool           `json:"stored"`
	Merged   bool           `json:"merged"`
	Reason   string         `json:"reason,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Check    DuplicateCheck `json:"check"`
	Pattern  *types.Pattern `json:"pattern,omitempty"`
}

// Learner runs the full capture -> validate -> dedupe -> store pipeline.
type Learner struct {
	cfg       config.LearningConfig
	logger    logging.Logger
	capture   *Capture
	validator *Validator
	store     Store
}

// NewLearner wires the pipeline around a store.
func NewLearner(cfg config.LearningConfig, store Store, logger logging.Logger) *Learner {
	return &Learner{
		cfg:       cfg,
		logger:    logger.WithComponent("learner"),
		capture:   NewCapture(cfg),
		validator: NewValidator(cfg),
		store:     store,
	}
}

// Store exposes the underlying pattern store.
func (l *Learner) Store() Store {
	return l.store
}

// ObserveCommand feeds one command into the session buffer. When the command
// closes the session (workflow-ending command) the capture is learned
// immediately and the result returned; otherwise the return is nil.
func (l *Learner) ObserveCommand(sessionID, command, agentID string) *LearnResult {
	if result := l.capture.Observe(sessionID, command, agentID); result != nil {
		learned := l.Learn(result)
		return &learned
	}
	return nil
}

// SetWorkflow tags a session buffer with its workflow name.
func (l *Learner) SetWorkflow(sessionID, workflow string) {
	l.capture.SetWorkflow(sessionID, workflow)
}

// CompleteSession closes a session buffer explicitly and learns from it.
func (l *Learner) CompleteSession(sessionID string, successful bool) LearnResult {
	return l.Learn(l.capture.Complete(sessionID, successful))
}

// Learn validates a capture and either merges it into an existing
// near-duplicate pattern or inserts it as a new pending pattern.
func (l *Learner) Learn(capture *CaptureResult) LearnResult {
	if capture == nil || !capture.Valid {
		reason := "empty capture"
		if capture != nil {
			reason = capture.Reason
		}
		return LearnResult{Reason: reason}
	}

	validation := l.validator.Validate(capture.Sequence)
	if !validation.Valid {
		l.logger.Debug("captured sequence rejected", "reason", validation.Reason)
		return LearnResult{Reason: validation.Reason}
	}

	if existing, check := l.store.FindSimilar(capture.Sequence, l.cfg.MergeThreshold); existing != nil {
		existing.Touch()
		existing.AdjustConfidence(mergeConfidenceBoost)
		if err := l.store.Upsert(existing); err != nil {
			l.logger.Warn("failed to persist merged pattern", "id", existing.ID, "error", err)
			return LearnResult{Reason: fmt.Sprintf("persist failed: %v", err)}
		}
		l.logger.Info("merged capture into existing pattern",
			"id", existing.ID, "similarity", check.Similarity, "occurrences", existing.Occurrences)
		return LearnResult{
			Stored:   true,
			Merged:   true,
			Warnings: validation.Warnings,
			Check:    check,
			Pattern:  existing,
		}
	}

	pattern := types.NewPattern(capture.Sequence, capture.Agents, capture.Workflow)
	if err := l.store.Upsert(pattern); err != nil {
		l.logger.Warn("failed to persist new pattern", "error", err)
		return LearnResult{Reason: fmt.Sprintf("persist failed: %v", err)}
	}
	l.logger.Info("stored new pattern", "id", pattern.ID, "length", len(pattern.Sequence))
	return LearnResult{
		Stored:   true,
		Warnings: validation.Warnings,
		Check:    DuplicateCheck{},
		Pattern:  pattern,
	}
}
