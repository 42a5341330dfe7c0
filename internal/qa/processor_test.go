package qa

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/gotcha"
	"workflow-intelligence/internal/learning"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/pkg/types"
)

type fixture struct {
	processor *Processor
	store     learning.Store
	gotchas   *gotcha.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := learning.NewJSONStore(config.LearningConfig{
		MinSequenceLength:   3,
		MaxSequenceLength:   20,
		MergeThreshold:      0.85,
		PromotionSuccess:    0.8,
		PromotionOccurrence: 2,
		MaxPatterns:         200,
		StorePath:           filepath.Join(dir, "patterns.json"),
	}, logging.NewNoop())
	require.NoError(t, err)

	gotchas := gotcha.New(config.GotchaConfig{
		StorePath:          filepath.Join(dir, "gotchas.json"),
		RelevanceThreshold: 0.7,
		MinConfidence:      0.5,
		MaxResults:         5,
	}, logging.NewNoop())

	processor := New(config.QAConfig{
		FeedbackPath:        filepath.Join(dir, "feedback.json"),
		FailureLimit:        3,
		SuccessDelta:        0.05,
		PartialDelta:        -0.05,
		FailureDelta:        -0.1,
		CriticalDelta:       -0.2,
		AlternativeMinRate:  0.8,
		AlternativeMinExecs: 3,
	}, store, gotchas, logging.NewNoop())

	return &fixture{processor: processor, store: store, gotchas: gotchas}
}

func (f *fixture) seedPattern(t *testing.T, workflow string, sequence ...string) *types.Pattern {
	t.Helper()
	p := types.NewPattern(sequence, nil, workflow)
	require.NoError(t, f.store.Upsert(p))
	return p
}

func TestTranslateVerdict(t *testing.T) {
	tests := []struct {
		name     string
		verdict  types.QAVerdict
		outcome  types.FeedbackOutcome
		severity types.FeedbackSeverity
	}{
		{"pass", types.QAVerdict{GateDecision: "pass"}, types.OutcomeSuccess, types.SeverityNone},
		{"concerns", types.QAVerdict{GateDecision: "concerns"}, types.OutcomePartial, types.SeverityMinor},
		{"waived", types.QAVerdict{GateDecision: "waived"}, types.OutcomePartial, types.SeverityMinor},
		{"fail", types.QAVerdict{GateDecision: "fail"}, types.OutcomeFailure, types.SeverityMajor},
		{"fail with security findings", types.QAVerdict{GateDecision: "FAIL", SecurityChecklist: []string{"sql injection"}}, types.OutcomeFailure, types.SeverityCritical},
		{"unknown decision", types.QAVerdict{GateDecision: "wat"}, types.OutcomePartial, types.SeverityMinor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, severity := TranslateVerdict(&tt.verdict)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.severity, severity)
		})
	}
}

func TestProcessSuccess(t *testing.T) {
	f := newFixture(t)
	p := f.seedPattern(t, "story-cycle", "create-story", "develop", "push")

	result, err := f.processor.Process(p.ID, &types.QAVerdict{GateDecision: "pass"}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{p.ID}, result.PatternsAffected)
	updated, ok := f.store.Get(p.ID)
	require.True(t, ok)
	assert.InDelta(t, 0.55, updated.Confidence, 1e-9)
	assert.Equal(t, types.PatternActive, updated.Status)
	assert.InDelta(t, 1.0, updated.SuccessRate, 1e-9)

	stats := f.processor.Stats(p.ID)
	assert.Equal(t, 1, stats.TotalExecutions)
	assert.Equal(t, 1, stats.Successes)
}

func TestProcessDeprecatesAfterConsecutiveFailures(t *testing.T) {
	f := newFixture(t)
	p := f.seedPattern(t, "story-cycle", "create-story", "develop", "push")

	fail := &types.QAVerdict{GateDecision: "fail"}
	for i := 0; i < 2; i++ {
		_, err := f.processor.Process(p.ID, fail, "")
		require.NoError(t, err)
	}
	updated, _ := f.store.Get(p.ID)
	assert.NotEqual(t, types.PatternDeprecated, updated.Status)

	result, err := f.processor.Process(p.ID, fail, "")
	require.NoError(t, err)

	updated, _ = f.store.Get(p.ID)
	assert.Equal(t, types.PatternDeprecated, updated.Status)
	assert.InDelta(t, 0.2, updated.Confidence, 1e-9)
	require.NotEmpty(t, result.Actions)
	assert.Contains(t, result.Actions[0], "deprecated")

	// A success streak is broken, so the stats show three in a row.
	assert.Equal(t, 3, f.processor.Stats(p.ID).ConsecutiveFailures)
}

func TestProcessCriticalFailureCreatesGotcha(t *testing.T) {
	f := newFixture(t)
	p := f.seedPattern(t, "story-cycle", "create-story", "develop", "push")

	result, err := f.processor.Process(p.ID, &types.QAVerdict{
		GateDecision:      "fail",
		BlockingIssues:    []string{"credentials committed"},
		SecurityChecklist: []string{"secret scanning"},
	}, "deploying straight to production")
	require.NoError(t, err)

	require.Len(t, result.GotchasCreated, 1)
	g, ok := f.gotchas.Get(result.GotchasCreated[0])
	require.True(t, ok)
	assert.Equal(t, "qa-gate", g.Source)
	assert.Contains(t, g.Reason, "credentials committed")

	updated, _ := f.store.Get(p.ID)
	assert.InDelta(t, 0.3, updated.Confidence, 1e-9)
}

func TestProcessSuggestsAlternatives(t *testing.T) {
	f := newFixture(t)
	failing := f.seedPattern(t, "story-cycle", "create-story", "develop", "push")
	proven := f.seedPattern(t, "story-cycle", "create-story", "test", "develop", "push")
	otherFlow := f.seedPattern(t, "release-cycle", "commit", "deploy", "verify")

	pass := &types.QAVerdict{GateDecision: "pass"}
	for i := 0; i < 3; i++ {
		_, err := f.processor.Process(proven.ID, pass, "")
		require.NoError(t, err)
		_, err = f.processor.Process(otherFlow.ID, pass, "")
		require.NoError(t, err)
	}

	result, err := f.processor.Process(failing.ID, &types.QAVerdict{GateDecision: "fail"}, "")
	require.NoError(t, err)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "create-story", result.Suggestions[0].Command)
	assert.Equal(t, types.SourcePattern, result.Suggestions[0].Source)
}

func TestProcessUnknownPattern(t *testing.T) {
	f := newFixture(t)

	result, err := f.processor.Process("missing", &types.QAVerdict{GateDecision: "fail"}, "")
	require.NoError(t, err)
	assert.Empty(t, result.PatternsAffected)
	assert.Len(t, f.processor.Records(), 1)
}

func TestProcessNilVerdict(t *testing.T) {
	f := newFixture(t)
	result, err := f.processor.Process("any", nil, "")
	require.NoError(t, err)
	assert.Empty(t, result.PatternsAffected)
	assert.Empty(t, f.processor.Records())
}

func TestFeedbackLogPersistence(t *testing.T) {
	f := newFixture(t)
	p := f.seedPattern(t, "story-cycle", "create-story", "develop", "push")

	_, err := f.processor.Process(p.ID, &types.QAVerdict{GateDecision: "pass"}, "")
	require.NoError(t, err)

	reopened := New(f.processor.cfg, f.store, f.gotchas, logging.NewNoop())
	require.Len(t, reopened.Records(), 1)
	assert.Equal(t, p.ID, reopened.Records()[0].PatternID)
	assert.Equal(t, 1, reopened.Stats(p.ID).TotalExecutions)
}
