package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureObserve(t *testing.T) {
	cfg := testLearningConfig(t)

	t.Run("end command closes the session", func(t *testing.T) {
		c := NewCapture(cfg)
		assert.Nil(t, c.Observe("s1", "create-story", "sm"))
		assert.Nil(t, c.Observe("s1", "develop", "dev"))

		result := c.Observe("s1", "push", "dev")
		require.NotNil(t, result)
		assert.True(t, result.Valid)
		assert.Equal(t, []string{"create-story", "develop", "push"}, result.Sequence)
	})

	t.Run("commands are normalized on entry", func(t *testing.T) {
		c := NewCapture(cfg)
		c.Observe("s1", "*Develop completed", "dev")
		assert.Equal(t, 1, c.Pending("s1"))

		c.Observe("s1", "test", "dev")
		result := c.Complete("s1", true)
		assert.Equal(t, []string{"develop", "test"}, result.Sequence)
	})

	t.Run("consecutive agents are deduplicated", func(t *testing.T) {
		c := NewCapture(cfg)
		c.Observe("s1", "create-story", "sm")
		c.Observe("s1", "develop", "dev")
		c.Observe("s1", "test", "dev")
		result := c.Observe("s1", "push", "qa")
		require.NotNil(t, result)
		assert.Equal(t, []string{"sm", "dev", "qa"}, result.Agents)
	})

	t.Run("empty command is ignored", func(t *testing.T) {
		c := NewCapture(cfg)
		assert.Nil(t, c.Observe("s1", "   ", "dev"))
		assert.Zero(t, c.Pending("s1"))
	})
}

func TestCaptureComplete(t *testing.T) {
	cfg := testLearningConfig(t)

	t.Run("empty session is invalid", func(t *testing.T) {
		c := NewCapture(cfg)
		result := c.Complete("nope", true)
		assert.False(t, result.Valid)
		assert.Equal(t, "empty session", result.Reason)
	})

	t.Run("failed session is never stored", func(t *testing.T) {
		c := NewCapture(cfg)
		c.Observe("s1", "create-story", "")
		c.Observe("s1", "develop", "")
		c.Observe("s1", "test", "")
		result := c.Complete("s1", false)
		assert.False(t, result.Valid)
		assert.Equal(t, "session not successful", result.Reason)
	})

	t.Run("short sequence rejected", func(t *testing.T) {
		c := NewCapture(cfg)
		c.Observe("s1", "develop", "")
		result := c.Complete("s1", true)
		assert.False(t, result.Valid)
	})

	t.Run("no key command rejected", func(t *testing.T) {
		c := NewCapture(cfg)
		c.Observe("s1", "test", "")
		c.Observe("s1", "commit", "")
		c.Observe("s1", "pr", "")
		result := c.Complete("s1", true)
		assert.False(t, result.Valid)
		assert.Equal(t, "no key workflow command in sequence", result.Reason)
	})

	t.Run("completion clears the buffer", func(t *testing.T) {
		c := NewCapture(cfg)
		c.Observe("s1", "develop", "")
		c.Complete("s1", true)
		assert.Zero(t, c.Pending("s1"))
	})

	t.Run("workflow tag carried through", func(t *testing.T) {
		c := NewCapture(cfg)
		c.SetWorkflow("s1", "story-cycle")
		c.Observe("s1", "create-story", "")
		c.Observe("s1", "develop", "")
		c.Observe("s1", "test", "")
		result := c.Complete("s1", true)
		require.True(t, result.Valid)
		assert.Equal(t, "story-cycle", result.Workflow)
	})
}
