// Package qa consumes externally-produced quality-gate verdicts and feeds
// them back into the learning subsystem: pattern confidence moves with each
// verdict, chronically failing patterns are deprecated, and critical failures
// become gotchas.
package qa

import (
	"fmt"
	"strings"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/gotcha"
	"workflow-intelligence/internal/learning"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/internal/storage"
	"workflow-intelligence/pkg/types"
)

// confidenceFloor demotes a pattern to deprecated once its confidence sinks
// this low, independent of the consecutive-failure rule.
const confidenceFloor = 0.2

// Processor applies quality verdicts to the pattern store and gotcha
// registry, keeping an append-only feedback log plus derived per-pattern
// stats.
type Processor struct {
	cfg     config.QAConfig
	logger  logging.Logger
	store   learning.Store
	gotchas *gotcha.Registry

	records []*types.FeedbackRecord
	stats   map[string]*types.PatternStats
}

type feedbackFile struct {
	Records []*types.FeedbackRecord        `json:"records"`
	Stats   map[string]*types.PatternStats `json:"stats"`
}

// New loads the feedback log. Missing or corrupt logs start empty.
func New(cfg config.QAConfig, store learning.Store, gotchas *gotcha.Registry, logger logging.Logger) *Processor {
	p := &Processor{
		cfg:     cfg,
		logger:  logger.WithComponent("qa"),
		store:   store,
		gotchas: gotchas,
		stats:   make(map[string]*types.PatternStats),
	}

	var file feedbackFile
	if err := storage.LoadJSON(cfg.FeedbackPath, &file); err != nil {
		p.logger.Warn("feedback log unreadable, starting empty", "path", cfg.FeedbackPath, "error", err)
		return p
	}
	p.records = file.Records
	if file.Stats != nil {
		p.stats = file.Stats
	}
	return p
}

// Process translates a verdict into the outcome taxonomy, updates the
// pattern's rolling stats and confidence, deprecates it when it fails
// chronically, records a gotcha on critical failure and proposes alternative
// patterns.
func (p *Processor) Process(patternID string, verdict *types.QAVerdict, context string) (*types.QAResult, error) {
	if verdict == nil {
		return &types.QAResult{}, nil
	}

	outcome, severity := TranslateVerdict(verdict)
	record := types.NewFeedbackRecord(patternID, outcome, severity, verdict.BlockingIssues)
	p.records = append(p.records, record)

	result := &types.QAResult{}

	pattern, known := p.store.Get(patternID)
	if known {
		stats := p.statsFor(patternID)
		stats.Record(outcome)

		pattern.AdjustConfidence(p.confidenceDelta(outcome, severity))
		pattern.SuccessRate = p.successRate(stats)

		if stats.ConsecutiveFailures >= p.cfg.FailureLimit || pattern.Confidence < confidenceFloor {
			if pattern.Status != types.PatternDeprecated {
				pattern.Status = types.PatternDeprecated
				result.Actions = append(result.Actions,
					fmt.Sprintf("deprecated pattern %s after %d consecutive failures", patternID, stats.ConsecutiveFailures))
				p.logger.Info("pattern deprecated",
					"id", patternID,
					"consecutive_failures", stats.ConsecutiveFailures,
					"confidence", pattern.Confidence)
			}
		} else if outcome == types.OutcomeSuccess && pattern.Status == types.PatternPending {
			pattern.Status = types.PatternActive
		}

		if err := p.store.Upsert(pattern); err != nil {
			return nil, fmt.Errorf("persisting pattern %s: %w", patternID, err)
		}
		result.PatternsAffected = append(result.PatternsAffected, patternID)
	}

	if severity == types.SeverityCritical {
		g := types.NewGotcha(p.patternSummary(pattern, patternID), context,
			strings.Join(verdict.BlockingIssues, "; "), "qa-gate")
		stored, err := p.gotchas.Record(g)
		if err != nil {
			p.logger.Warn("failed to record gotcha from critical failure", "error", err)
		} else {
			result.GotchasCreated = append(result.GotchasCreated, stored.ID)
			result.Actions = append(result.Actions, "recorded gotcha from critical failure")
		}
	}

	if outcome != types.OutcomeSuccess && known {
		result.Suggestions = p.alternatives(pattern)
	}

	if err := p.save(); err != nil {
		return nil, err
	}
	return result, nil
}

// TranslateVerdict maps a gate decision onto the outcome taxonomy. A fail
// with security findings is critical.
func TranslateVerdict(verdict *types.QAVerdict) (types.FeedbackOutcome, types.FeedbackSeverity) {
	switch strings.ToLower(verdict.GateDecision) {
	case "pass":
		return types.OutcomeSuccess, types.SeverityNone
	case "concerns", "waived":
		return types.OutcomePartial, types.SeverityMinor
	case "fail":
		if len(verdict.SecurityChecklist) > 0 {
			return types.OutcomeFailure, types.SeverityCritical
		}
		return types.OutcomeFailure, types.SeverityMajor
	default:
		return types.OutcomePartial, types.SeverityMinor
	}
}

// Stats returns the derived aggregate for a pattern id.
func (p *Processor) Stats(patternID string) types.PatternStats {
	if s, ok := p.stats[patternID]; ok {
		return *s
	}
	return types.PatternStats{}
}

// Records returns the append-only feedback log.
func (p *Processor) Records() []*types.FeedbackRecord {
	out := make([]*types.FeedbackRecord, len(p.records))
	copy(out, p.records)
	return out
}

func (p *Processor) confidenceDelta(outcome types.FeedbackOutcome, severity types.FeedbackSeverity) float64 {
	switch outcome {
	case types.OutcomeSuccess:
		return p.cfg.SuccessDelta
	case types.OutcomePartial:
		return p.cfg.PartialDelta
	case types.OutcomeFailure:
		if severity == types.SeverityCritical {
			return p.cfg.CriticalDelta
		}
		return p.cfg.FailureDelta
	default:
		return 0
	}
}

func (p *Processor) statsFor(patternID string) *types.PatternStats {
	s, ok := p.stats[patternID]
	if !ok {
		s = &types.PatternStats{}
		p.stats[patternID] = s
	}
	return s
}

func (p *Processor) successRate(stats *types.PatternStats) float64 {
	if stats.TotalExecutions == 0 {
		return 0
	}
	return float64(stats.Successes) / float64(stats.TotalExecutions)
}

// alternatives proposes proven patterns from the same workflow: success rate
// at or above the configured minimum over enough executions.
func (p *Processor) alternatives(failed *types.Pattern) []types.Suggestion {
	var suggestions []types.Suggestion
	for _, candidate := range p.store.All() {
		if candidate.ID == failed.ID || candidate.Status == types.PatternDeprecated {
			continue
		}
		if failed.Workflow != "" && candidate.Workflow != failed.Workflow {
			continue
		}
		stats := p.stats[candidate.ID]
		if stats == nil || stats.TotalExecutions < p.cfg.AlternativeMinExecs {
			continue
		}
		if p.successRate(stats) < p.cfg.AlternativeMinRate {
			continue
		}
		if len(candidate.Sequence) == 0 {
			continue
		}
		suggestions = append(suggestions, types.Suggestion{
			Command:     candidate.Sequence[0],
			Description: fmt.Sprintf("alternative pattern %s (%.0f%% success over %d runs)", candidate.ID, p.successRate(stats)*100, stats.TotalExecutions),
			Confidence:  candidate.Confidence,
			Source:      types.SourcePattern,
		})
	}
	return suggestions
}

func (p *Processor) patternSummary(pattern *types.Pattern, patternID string) string {
	if pattern == nil {
		return patternID
	}
	return strings.Join(pattern.Sequence, " -> ")
}

func (p *Processor) save() error {
	return storage.SaveJSON(p.cfg.FeedbackPath, &feedbackFile{Records: p.records, Stats: p.stats})
}
