// Package engine is the composition root: it wires the registry, scorer, wave
// analyzer, learner, searcher, gotcha registry, quality feedback processor and
// suggestion engine into one object. Nothing here is a singleton; callers own
// the engine's lifecycle.
package engine

import (
	"context"
	"fmt"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/gotcha"
	"workflow-intelligence/internal/learning"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/internal/qa"
	"workflow-intelligence/internal/registry"
	"workflow-intelligence/internal/scoring"
	"workflow-intelligence/internal/search"
	"workflow-intelligence/internal/suggest"
	"workflow-intelligence/internal/waves"
	"workflow-intelligence/pkg/types"
)

// Engine bundles every subsystem behind one handle.
type Engine struct {
	cfg    *config.Config
	logger logging.Logger

	registry *registry.Registry
	scorer   *scoring.Scorer
	waves    *waves.Analyzer
	patterns learning.Store
	learner  *learning.Learner
	searcher *search.Searcher
	gotchas  *gotcha.Registry
	qa       *qa.Processor
	suggest  *suggest.Engine
	sessions *suggest.SessionLog
}

// New builds a fully wired engine from configuration.
func New(cfg *config.Config, logger logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scorer, err := scoring.NewScorer(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("building scorer: %w", err)
	}
	patterns, err := learning.NewStore(cfg.Learning, logger)
	if err != nil {
		return nil, fmt.Errorf("opening pattern store: %w", err)
	}

	reg := registry.New(cfg.Registry, logger)
	gotchas := gotcha.New(cfg.Gotchas, logger)
	searcher := search.New(cfg.Search, logger)
	sessions := suggest.NewSessionLog(cfg.Session, logger)

	e := &Engine{
		cfg:      cfg,
		logger:   logger.WithComponent("engine"),
		registry: reg,
		scorer:   scorer,
		waves:    waves.New(cfg.Waves, logger),
		patterns: patterns,
		learner:  learning.NewLearner(cfg.Learning, patterns, logger),
		searcher: searcher,
		gotchas:  gotchas,
		qa:       qa.New(cfg.QA, patterns, gotchas, logger),
		sessions: sessions,
	}
	e.suggest = suggest.NewEngine(cfg.Suggest, reg, scorer, patterns, gotchas, sessions, logger)
	return e, nil
}

// Run starts background services and blocks until the context is cancelled.
// Currently that is only the definitions watcher, and only when enabled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.cfg.Registry.Watch {
		<-ctx.Done()
		return ctx.Err()
	}
	return e.registry.Watch(ctx)
}

// Suggest builds a session context from the raw input and returns ranked
// suggestions.
func (e *Engine) Suggest(in suggest.ContextInput) *types.SuggestionResult {
	ctx := e.suggest.BuildContext(in)
	return e.suggest.Suggest(ctx)
}

// ObserveCommand records a command into the session log and the learning
// buffer. When the command ends the session's workflow, the resulting learn
// outcome is returned; otherwise nil.
func (e *Engine) ObserveCommand(sessionID, command, agentID string) (*learning.LearnResult, error) {
	if err := e.sessions.Append(sessionID, command, agentID); err != nil {
		e.logger.Warn("failed to persist session log entry", "session", sessionID, "error", err)
	}
	e.suggest.InvalidateCache()
	return e.learner.ObserveCommand(sessionID, command, agentID), nil
}

// CompleteSession closes a session explicitly and learns from it when
// successful.
func (e *Engine) CompleteSession(sessionID string, successful bool) learning.LearnResult {
	e.suggest.InvalidateCache()
	return e.learner.CompleteSession(sessionID, successful)
}

// SetSessionWorkflow tags a session with the workflow it executes.
func (e *Engine) SetSessionWorkflow(sessionID, workflow string) {
	e.learner.SetWorkflow(sessionID, workflow)
}

// AnalyzeWaves groups a workflow's tasks into parallel execution waves.
func (e *Engine) AnalyzeWaves(workflowID string, tasks []types.Task) (*types.WaveAnalysis, error) {
	return e.waves.AnalyzeWaves(workflowID, tasks)
}

// MatchWorkflow matches a command history against the loaded definitions.
func (e *Engine) MatchWorkflow(history []string) (*types.WorkflowMatch, error) {
	return e.registry.MatchWorkflow(history)
}

// Workflows returns the loaded workflow definitions.
func (e *Engine) Workflows() ([]types.Workflow, error) {
	return e.registry.LoadWorkflows()
}

// Patterns returns every learned pattern.
func (e *Engine) Patterns() []*types.Pattern {
	return e.patterns.All()
}

// SearchPatterns runs semantic search over all stored patterns.
func (e *Engine) SearchPatterns(query string) []search.Result {
	return e.searcher.Search(query, e.patterns.All())
}

// RecordGotcha stores a known failure pattern.
func (e *Engine) RecordGotcha(pattern, context, reason, source string) (*types.Gotcha, error) {
	return e.gotchas.Record(types.NewGotcha(pattern, context, reason, source))
}

// QueryGotchas returns the known failure patterns relevant to a context.
func (e *Engine) QueryGotchas(context string) []gotcha.QueryResult {
	return e.gotchas.Query(context)
}

// Gotchas returns every stored gotcha.
func (e *Engine) Gotchas() []*types.Gotcha {
	return e.gotchas.All()
}

// DeprecateGotcha zeroes a gotcha's confidence.
func (e *Engine) DeprecateGotcha(id string) error {
	return e.gotchas.Deprecate(id)
}

// ProcessQAVerdict applies a quality-gate verdict to the named pattern.
func (e *Engine) ProcessQAVerdict(patternID string, verdict *types.QAVerdict, context string) (*types.QAResult, error) {
	e.suggest.InvalidateCache()
	return e.qa.Process(patternID, verdict, context)
}

// PatternStats returns the aggregated feedback stats for a pattern.
func (e *Engine) PatternStats(patternID string) types.PatternStats {
	return e.qa.Stats(patternID)
}

// FeedbackRecords returns the append-only quality feedback log.
func (e *Engine) FeedbackRecords() []*types.FeedbackRecord {
	return e.qa.Records()
}

// ReloadDefinitions drops the registry and suggestion caches.
func (e *Engine) ReloadDefinitions() {
	e.registry.InvalidateCache()
	e.suggest.InvalidateCache()
}
