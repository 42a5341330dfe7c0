package gotcha

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/pkg/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(config.GotchaConfig{
		StorePath:          filepath.Join(t.TempDir(), "gotchas.json"),
		RelevanceThreshold: 0.7,
		MinConfidence:      0.5,
		MaxResults:         5,
	}, logging.NewNoop())
}

func TestExtractKeywords(t *testing.T) {
	t.Run("drops short words and duplicates", func(t *testing.T) {
		keywords := ExtractKeywords("do not run db migration on db in prod")
		assert.Equal(t, []string{"not", "run", "migration", "prod"}, keywords)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, ExtractKeywords(""))
	})
}

func TestRecord(t *testing.T) {
	t.Run("stores a new gotcha", func(t *testing.T) {
		r := newTestRegistry(t)
		g := types.NewGotcha("database migration fails", "production deploys", "locks tables", "manual")

		stored, err := r.Record(g)
		require.NoError(t, err)
		assert.Equal(t, g.ID, stored.ID)
		assert.NotEmpty(t, stored.Keywords)
		assert.Len(t, r.All(), 1)
	})

	t.Run("merges near duplicates", func(t *testing.T) {
		r := newTestRegistry(t)
		first, err := r.Record(types.NewGotcha("database migration fails", "production deploys", "locks tables", "manual"))
		require.NoError(t, err)

		second, err := r.Record(types.NewGotcha("database migration fails", "production deploys", "", "qa-gate"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 2, second.Occurrences)
		assert.InDelta(t, 0.7, second.Confidence, 1e-9)
		assert.Len(t, r.All(), 1)
	})

	t.Run("distinct gotchas stored separately", func(t *testing.T) {
		r := newTestRegistry(t)
		_, err := r.Record(types.NewGotcha("database migration fails", "production", "", "manual"))
		require.NoError(t, err)
		_, err = r.Record(types.NewGotcha("websocket reconnect storm", "load balancer restart", "", "manual"))
		require.NoError(t, err)
		assert.Len(t, r.All(), 2)
	})
}

func TestQuery(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Record(types.NewGotcha("database migration fails production", "", "", "manual"))
	require.NoError(t, err)
	_, err = r.Record(types.NewGotcha("flaky websocket reconnect tests", "", "", "manual"))
	require.NoError(t, err)

	t.Run("returns relevant gotchas above threshold", func(t *testing.T) {
		results := r.Query("database migration production rollback")
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Gotcha.Pattern, "database")
		assert.GreaterOrEqual(t, results[0].Relevance, 0.7)
	})

	t.Run("weak overlap is excluded", func(t *testing.T) {
		assert.Empty(t, r.Query("database kubernetes helm chart rollout"))
	})

	t.Run("empty context returns nothing", func(t *testing.T) {
		assert.Empty(t, r.Query(""))
	})

	t.Run("low-confidence gotchas are excluded", func(t *testing.T) {
		g, err := r.Record(types.NewGotcha("stale cache poisoning issue", "", "", "manual"))
		require.NoError(t, err)
		require.NoError(t, r.Deprecate(g.ID))
		assert.Empty(t, r.Query("stale cache poisoning issue"))
	})
}

func TestDeprecate(t *testing.T) {
	r := newTestRegistry(t)
	g, err := r.Record(types.NewGotcha("database migration fails", "", "", "manual"))
	require.NoError(t, err)

	require.NoError(t, r.Deprecate(g.ID))
	got, ok := r.Get(g.ID)
	require.True(t, ok)
	assert.Zero(t, got.Confidence)

	// Deprecating an unknown id is a no-op.
	assert.NoError(t, r.Deprecate("missing"))
}

func TestPersistence(t *testing.T) {
	cfg := config.GotchaConfig{
		StorePath:          filepath.Join(t.TempDir(), "gotchas.json"),
		RelevanceThreshold: 0.7,
		MinConfidence:      0.5,
		MaxResults:         5,
	}
	r := New(cfg, logging.NewNoop())
	g, err := r.Record(types.NewGotcha("database migration fails", "production", "locks", "manual"))
	require.NoError(t, err)

	reopened := New(cfg, logging.NewNoop())
	got, ok := reopened.Get(g.ID)
	require.True(t, ok)
	assert.Equal(t, g.Pattern, got.Pattern)
	assert.Equal(t, g.Keywords, got.Keywords)
}
