package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflow() Workflow {
	return Workflow{
		Name: "story-cycle",
		Transitions: map[string]Transition{
			"story_created": {
				Trigger:    "create-story",
				Confidence: 0.9,
				NextSteps: []NextStep{
					{Command: "review", Priority: 2},
					{Command: "develop", Priority: 1},
					{Command: "test-design", Priority: 3},
				},
			},
		},
	}
}

func TestWorkflowValidate(t *testing.T) {
	t.Run("valid workflow passes", func(t *testing.T) {
		wf := validWorkflow()
		require.NoError(t, wf.Validate())
	})

	t.Run("missing name fails", func(t *testing.T) {
		wf := validWorkflow()
		wf.Name = "  "
		assert.Error(t, wf.Validate())
	})

	t.Run("no transitions fails", func(t *testing.T) {
		wf := validWorkflow()
		wf.Transitions = nil
		assert.Error(t, wf.Validate())
	})

	t.Run("empty trigger fails", func(t *testing.T) {
		wf := validWorkflow()
		wf.Transitions["bad"] = Transition{Trigger: ""}
		assert.Error(t, wf.Validate())
	})

	t.Run("confidence out of range fails", func(t *testing.T) {
		wf := validWorkflow()
		wf.Transitions["bad"] = Transition{Trigger: "x", Confidence: 1.5}
		assert.Error(t, wf.Validate())
	})
}

func TestSortedNextSteps(t *testing.T) {
	t.Run("sorted by ascending priority", func(t *testing.T) {
		wf := validWorkflow()
		steps := wf.SortedNextSteps("story_created")
		require.Len(t, steps, 3)
		assert.Equal(t, "develop", steps[0].Command)
		assert.Equal(t, "review", steps[1].Command)
		assert.Equal(t, "test-design", steps[2].Command)
	})

	t.Run("unknown state returns nil", func(t *testing.T) {
		wf := validWorkflow()
		assert.Nil(t, wf.SortedNextSteps("nope"))
	})

	t.Run("returns a copy", func(t *testing.T) {
		wf := validWorkflow()
		steps := wf.SortedNextSteps("story_created")
		steps[0].Command = "mutated"
		assert.Equal(t, "review", wf.Transitions["story_created"].NextSteps[0].Command)
	})
}
