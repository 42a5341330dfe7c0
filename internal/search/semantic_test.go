package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/pkg/types"
)

func newTestSearcher() *Searcher {
	return New(config.SearchConfig{
		MinScore:   0.3,
		MaxResults: 10,
		CacheTTL:   2 * time.Minute,
		SynonymGroups: [][]string{
			{"create", "make", "generate"},
			{"test", "verify", "check"},
		},
	}, logging.NewNoop())
}

func pattern(workflow string, sequence ...string) *types.Pattern {
	return types.NewPattern(sequence, nil, workflow)
}

func TestSearch(t *testing.T) {
	s := newTestSearcher()
	patterns := []*types.Pattern{
		pattern("story-cycle", "create-story", "develop", "push"),
		pattern("release-cycle", "commit", "deploy"),
	}

	t.Run("exact word overlap scores highest", func(t *testing.T) {
		results := s.Search("create story", patterns)
		require.NotEmpty(t, results)
		assert.Equal(t, MethodExact, results[0].Method)
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
		assert.Equal(t, "story-cycle", results[0].Pattern.Workflow)
	})

	t.Run("synonyms match at reduced weight", func(t *testing.T) {
		results := s.Search("make", patterns)
		require.NotEmpty(t, results)
		assert.Equal(t, MethodSynonym, results[0].Method)
		assert.InDelta(t, 0.7, results[0].Score, 1e-9)
	})

	t.Run("unrelated query returns nothing", func(t *testing.T) {
		assert.Empty(t, s.Search("quantum blockchain", patterns))
	})

	t.Run("single typo falls below the minimum score", func(t *testing.T) {
		// "develp" has no exact or synonym match; edit distance alone
		// cannot reach the 0.3 floor.
		assert.Empty(t, s.Search("develp", patterns))
	})

	t.Run("partial exact overlap scores proportionally", func(t *testing.T) {
		results := s.Search("develop nonsense", patterns)
		require.NotEmpty(t, results)
		assert.Equal(t, MethodExact, results[0].Method)
		assert.InDelta(t, 0.5, results[0].Score, 1e-9)
	})

	t.Run("empty query returns nothing", func(t *testing.T) {
		assert.Empty(t, s.Search("  ", patterns))
		assert.Empty(t, s.Search("develop", nil))
	})
}

func TestSearchOrderingAndLimit(t *testing.T) {
	s := New(config.SearchConfig{
		MinScore:   0.3,
		MaxResults: 1,
		CacheTTL:   time.Minute,
	}, logging.NewNoop())

	patterns := []*types.Pattern{
		pattern("", "develop"),
		pattern("", "develop", "test"),
	}
	results := s.Search("develop test", patterns)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"develop", "test"}, results[0].Pattern.Sequence)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearchCaching(t *testing.T) {
	s := newTestSearcher()
	patterns := []*types.Pattern{pattern("", "develop", "push")}

	first := s.Search("develop", patterns)
	second := s.Search("develop", patterns)
	require.Len(t, first, 1)
	// Same query against the same pattern count returns the cached slice.
	assert.Same(t, &first[0], &second[0])

	// A different pattern count misses the cache.
	grown := append(patterns, pattern("", "develop", "test"))
	third := s.Search("develop", grown)
	assert.Len(t, third, 2)
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"develop", "develop", 0},
		{"develop", "develp", 1},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, levenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}
