package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/internal/suggest"
	"workflow-intelligence/pkg/types"
)

const engineDefinitions = `
workflows:
  - name: story-cycle
    transitions:
      story_created:
        trigger: create-story
        next_steps:
          - command: develop
            priority: 1
      development_done:
        trigger: develop
        next_steps:
          - command: review
            priority: 1
`

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	defsPath := filepath.Join(dir, "workflows.yaml")
	require.NoError(t, os.WriteFile(defsPath, []byte(engineDefinitions), 0o644))

	cfg := config.DefaultConfig()
	cfg.Registry.DefinitionsPath = defsPath
	cfg.Learning.StorePath = filepath.Join(dir, "patterns.json")
	cfg.Gotchas.StorePath = filepath.Join(dir, "gotchas.json")
	cfg.QA.FeedbackPath = filepath.Join(dir, "feedback.json")
	cfg.Session.LogPath = filepath.Join(dir, "session.json")
	return cfg
}

func TestNew(t *testing.T) {
	t.Run("wires a full engine", func(t *testing.T) {
		eng, err := New(newTestConfig(t), logging.NewNoop())
		require.NoError(t, err)
		assert.NotNil(t, eng)
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Scoring.CommandWeight = 0.9
		_, err := New(cfg, logging.NewNoop())
		assert.Error(t, err)
	})
}

func TestEngineEndToEnd(t *testing.T) {
	eng, err := New(newTestConfig(t), logging.NewNoop())
	require.NoError(t, err)

	// A session runs the story cycle and closes on push.
	for _, cmd := range []string{"create-story", "develop", "test"} {
		result, obsErr := eng.ObserveCommand("s1", cmd, "dev")
		require.NoError(t, obsErr)
		assert.Nil(t, result)
	}
	eng.SetSessionWorkflow("s1", "story-cycle")
	learned, err := eng.ObserveCommand("s1", "push", "dev")
	require.NoError(t, err)
	require.NotNil(t, learned)
	assert.True(t, learned.Stored)

	// The pattern is visible and searchable.
	require.Len(t, eng.Patterns(), 1)
	assert.NotEmpty(t, eng.SearchPatterns("develop"))

	// Suggestions come from the matched workflow.
	result := eng.Suggest(suggest.ContextInput{
		SessionID: "s1",
		AgentID:   "dev",
	})
	assert.NotEmpty(t, result.Suggestions)

	// Quality feedback adjusts the learned pattern.
	patternID := learned.Pattern.ID
	qaResult, err := eng.ProcessQAVerdict(patternID, &types.QAVerdict{GateDecision: "pass"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{patternID}, qaResult.PatternsAffected)
	assert.Equal(t, 1, eng.PatternStats(patternID).Successes)
	require.Len(t, eng.FeedbackRecords(), 1)

	// Gotchas round-trip through the engine surface.
	g, err := eng.RecordGotcha("database migration fails", "production deploy", "locks tables", "manual")
	require.NoError(t, err)
	assert.NotEmpty(t, eng.QueryGotchas("database migration fails production"))
	require.NoError(t, eng.DeprecateGotcha(g.ID))
	assert.Empty(t, eng.QueryGotchas("database migration fails production"))
}

func TestEngineWaves(t *testing.T) {
	eng, err := New(newTestConfig(t), logging.NewNoop())
	require.NoError(t, err)

	analysis, err := eng.AnalyzeWaves("wf", []types.Task{
		{ID: "a", Duration: 10},
		{ID: "b", Duration: 10},
		{ID: "c", DependsOn: []string{"a", "b"}, Duration: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 33, analysis.OptimizationGain)
	assert.Len(t, analysis.Waves, 2)
}

func TestEngineWorkflowQueries(t *testing.T) {
	eng, err := New(newTestConfig(t), logging.NewNoop())
	require.NoError(t, err)

	workflows, err := eng.Workflows()
	require.NoError(t, err)
	assert.Len(t, workflows, 1)

	match, err := eng.MatchWorkflow([]string{"create-story", "develop"})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "story-cycle", match.Name)
}
