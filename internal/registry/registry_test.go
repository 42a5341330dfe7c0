package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
)

const definitionsYAML = `
workflows:
  - name: story-cycle
    description: Story development cycle
    transitions:
      story_created:
        trigger: create-story
        confidence: 0.9
        next_steps:
          - command: develop
            args_template: "{story_path}"
            description: Implement the story
            priority: 1
          - command: risk-profile
            priority: 2
      development_done:
        trigger: develop
        confidence: 0.8
        next_steps:
          - command: review
            priority: 1
  - name: release-cycle
    description: Release flow
    transitions:
      ready:
        trigger: create-story
        confidence: 0.7
        next_steps:
          - command: push
            priority: 1
      shipped:
        trigger: develop
        confidence: 0.7
        next_steps:
          - command: deploy
            priority: 1
`

func writeDefinitions(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRegistry(t *testing.T, path string) *Registry {
	t.Helper()
	return New(config.RegistryConfig{
		DefinitionsPath:  path,
		CacheTTL:         5 * time.Minute,
		TriggerThreshold: 2,
	}, logging.NewNoop())
}

func TestLoadWorkflows(t *testing.T) {
	t.Run("loads valid yaml", func(t *testing.T) {
		r := newTestRegistry(t, writeDefinitions(t, "defs.yaml", definitionsYAML))
		workflows, err := r.LoadWorkflows()
		require.NoError(t, err)
		require.Len(t, workflows, 2)
		assert.Equal(t, "story-cycle", workflows[0].Name)
	})

	t.Run("missing file yields ErrDefinitionsNotFound", func(t *testing.T) {
		r := newTestRegistry(t, filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := r.LoadWorkflows()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDefinitionsNotFound))
	})

	t.Run("invalid definition is rejected", func(t *testing.T) {
		r := newTestRegistry(t, writeDefinitions(t, "bad.yaml", "workflows:\n  - name: broken\n"))
		_, err := r.LoadWorkflows()
		assert.Error(t, err)
	})

	t.Run("cache serves stale content until invalidated", func(t *testing.T) {
		path := writeDefinitions(t, "defs.yaml", definitionsYAML)
		r := newTestRegistry(t, path)

		first, err := r.LoadWorkflows()
		require.NoError(t, err)
		require.Len(t, first, 2)

		trimmed := `
workflows:
  - name: only-one
    transitions:
      s:
        trigger: create-story
        next_steps:
          - command: develop
            priority: 1
`
		require.NoError(t, os.WriteFile(path, []byte(trimmed), 0o644))

		cached, err := r.LoadWorkflows()
		require.NoError(t, err)
		assert.Len(t, cached, 2)

		r.InvalidateCache()
		fresh, err := r.LoadWorkflows()
		require.NoError(t, err)
		assert.Len(t, fresh, 1)
	})
}

func TestLoadWorkflowsFromMarkdown(t *testing.T) {
	playbook := "# Playbook\n\nSome prose.\n\n```yaml\nworkflows:\n  - name: md-flow\n    transitions:\n      s:\n        trigger: create-story\n        next_steps:\n          - command: develop\n            priority: 1\n```\n"
	r := newTestRegistry(t, writeDefinitions(t, "playbook.md", playbook))

	workflows, err := r.LoadWorkflows()
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "md-flow", workflows[0].Name)
}

func TestMatchWorkflow(t *testing.T) {
	r := newTestRegistry(t, writeDefinitions(t, "defs.yaml", definitionsYAML))

	t.Run("matches at threshold", func(t *testing.T) {
		match, err := r.MatchWorkflow([]string{"create-story", "develop"})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, 2, match.Score)
	})

	t.Run("ties keep first definition", func(t *testing.T) {
		// Both workflows match both triggers; story-cycle is defined first.
		match, err := r.MatchWorkflow([]string{"create-story", "develop"})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, "story-cycle", match.Name)
	})

	t.Run("below threshold returns nil", func(t *testing.T) {
		match, err := r.MatchWorkflow([]string{"create-story"})
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("normalizes history entries", func(t *testing.T) {
		match, err := r.MatchWorkflow([]string{"*Create-Story completed", "develop successfully"})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, 2, match.Score)
	})

	t.Run("repeated commands count once", func(t *testing.T) {
		match, err := r.MatchWorkflow([]string{"develop", "develop", "develop"})
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("matched commands are sorted", func(t *testing.T) {
		// Transition maps iterate in random order; the matched set must not.
		match, err := r.MatchWorkflow([]string{"develop", "create-story"})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, []string{"create-story", "develop"}, match.MatchedCommands)
	})
}

func TestMatchWorkflowShippedDefinitions(t *testing.T) {
	r := newTestRegistry(t, filepath.Join("..", "..", "data", "workflows.yaml"))

	t.Run("epic creation history matches the planning workflow", func(t *testing.T) {
		match, err := r.MatchWorkflow([]string{"create-epic", "create-story"})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, "epic-planning", match.Name)
		assert.GreaterOrEqual(t, match.Score, 2)
	})

	t.Run("story history still matches the story cycle", func(t *testing.T) {
		match, err := r.MatchWorkflow([]string{"create-story", "develop"})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, "story-cycle", match.Name)
	})
}

func TestStateQueries(t *testing.T) {
	r := newTestRegistry(t, writeDefinitions(t, "defs.yaml", definitionsYAML))

	t.Run("FindCurrentState maps trigger to state", func(t *testing.T) {
		state, err := r.FindCurrentState("story-cycle", "create-story")
		require.NoError(t, err)
		assert.Equal(t, "story_created", state)
	})

	t.Run("unknown trigger yields empty state", func(t *testing.T) {
		state, err := r.FindCurrentState("story-cycle", "frobnicate")
		require.NoError(t, err)
		assert.Empty(t, state)
	})

	t.Run("GetNextSteps sorted by priority", func(t *testing.T) {
		steps, err := r.GetNextSteps("story-cycle", "story_created")
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, "develop", steps[0].Command)
		assert.Equal(t, "{story_path}", steps[0].ArgsTemplate)
	})

	t.Run("unknown workflow is nil not error", func(t *testing.T) {
		wf, err := r.GetWorkflow("missing")
		require.NoError(t, err)
		assert.Nil(t, wf)
	})
}
