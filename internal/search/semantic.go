// Package search implements the fuzzy matcher the learning subsystem uses to
// find related patterns: exact word overlap, synonym-aware overlap, in-order
// subsequence overlap and per-word edit distance, best method wins.
package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/pkg/types"
)

// MatchMethod names the scoring method that produced a result, for
// explainability.
type MatchMethod string

const (
	MethodExact       MatchMethod = "exact"
	MethodSynonym     MatchMethod = "synonym"
	MethodSubsequence MatchMethod = "subsequence"
	MethodEditDist    MatchMethod = "edit_distance"
)

// Weights per method. Exact evidence beats synonym evidence beats order
// evidence beats fuzzy spelling.
const (
	exactWeight       = 1.0
	synonymWeight     = 0.7
	subsequenceWeight = 0.5
	editDistWeight    = 0.3
)

// Result is one scored pattern with the method that matched it.
type Result struct {
	Pattern *types.Pattern `json:"pattern"`
	Score   float64        `json:"score"`
	Method  MatchMethod    `json:"method"`
}

// Searcher scores query strings against pattern searchable text.
type Searcher struct {
	cfg      config.SearchConfig
	logger   logging.Logger
	synonyms map[string]int // word -> synonym group index

	cacheKey     string
	cacheResults []Result
	cacheAt      time.Time
}

// New builds a searcher, indexing the configured synonym groups.
func New(cfg config.SearchConfig, logger logging.Logger) *Searcher {
	synonyms := make(map[string]int)
	for group, words := range cfg.SynonymGroups {
		for _, word := range words {
			synonyms[strings.ToLower(word)] = group
		}
	}
	return &Searcher{
		cfg:      cfg,
		logger:   logger.WithComponent("search"),
		synonyms: synonyms,
	}
}

// Search scores the query against every pattern, drops results below the
// minimum score and returns the top-N by score. Results are cached per
// (normalized query, pattern count) for a short TTL.
func (s *Searcher) Search(query string, patterns []*types.Pattern) []Result {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" || len(patterns) == 0 {
		return nil
	}

	key := fmt.Sprintf("%s|%d", normalized, len(patterns))
	if key == s.cacheKey && time.Since(s.cacheAt) < s.cfg.CacheTTL {
		return s.cacheResults
	}

	queryWords := types.TokenizeCommand(normalized)
	var results []Result
	for _, p := range patterns {
		score, method := s.scorePattern(queryWords, p)
		if score < s.cfg.MinScore {
			continue
		}
		results = append(results, Result{Pattern: p, Score: score, Method: method})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > s.cfg.MaxResults {
		results = results[:s.cfg.MaxResults]
	}

	s.cacheKey = key
	s.cacheResults = results
	s.cacheAt = time.Now()
	return results
}

// scorePattern returns the best single-method score, not the sum: each method
// approximates the same relatedness and summing would double-count.
func (s *Searcher) scorePattern(queryWords []string, p *types.Pattern) (float64, MatchMethod) {
	textWords := types.TokenizeCommand(strings.ToLower(p.SearchableText()))
	if len(textWords) == 0 || len(queryWords) == 0 {
		return 0, ""
	}

	best := 0.0
	method := MatchMethod("")
	consider := func(score float64, m MatchMethod) {
		if score > best {
			best = score
			method = m
		}
	}

	consider(s.exactOverlap(queryWords, textWords)*exactWeight, MethodExact)
	consider(s.synonymOverlap(queryWords, textWords)*synonymWeight, MethodSynonym)
	consider(s.subsequenceOverlap(queryWords, textWords)*subsequenceWeight, MethodSubsequence)
	consider(s.editDistanceScore(queryWords, textWords)*editDistWeight, MethodEditDist)

	return best, method
}

// exactOverlap is the fraction of query words present verbatim in the text.
func (s *Searcher) exactOverlap(queryWords, textWords []string) float64 {
	set := make(map[string]bool, len(textWords))
	for _, w := range textWords {
		set[w] = true
	}
	matches := 0
	for _, w := range queryWords {
		if set[w] {
			matches++
		}
	}
	return float64(matches) / float64(len(queryWords))
}

// synonymOverlap counts a query word as matched when the text contains any
// word from the same synonym group.
func (s *Searcher) synonymOverlap(queryWords, textWords []string) float64 {
	groups := make(map[int]bool)
	words := make(map[string]bool, len(textWords))
	for _, w := range textWords {
		words[w] = true
		if g, ok := s.synonyms[w]; ok {
			groups[g] = true
		}
	}

	matches := 0
	for _, w := range queryWords {
		if words[w] {
			matches++
			continue
		}
		if g, ok := s.synonyms[w]; ok && groups[g] {
			matches++
		}
	}
	return float64(matches) / float64(len(queryWords))
}

// subsequenceOverlap is the fraction of query words found in the text in
// query order.
func (s *Searcher) subsequenceOverlap(queryWords, textWords []string) float64 {
	matched := 0
	pos := 0
	for _, qw := range queryWords {
		for pos < len(textWords) {
			if textWords[pos] == qw {
				matched++
				pos++
				break
			}
			pos++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// editDistanceScore averages, over query words, the best normalized
// Levenshtein similarity against any text word.
func (s *Searcher) editDistanceScore(queryWords, textWords []string) float64 {
	var total float64
	for _, qw := range queryWords {
		best := 0.0
		for _, tw := range textWords {
			if sim := levenshteinSimilarity(qw, tw); sim > best {
				best = sim
			}
		}
		total += best
	}
	return total / float64(len(queryWords))
}

// levenshteinSimilarity is 1 - distance/maxLen.
func levenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
