// Package gotcha stores known failure patterns ("don't do X in context Y")
// keyed by extracted keywords and queryable by relevance.
package gotcha

import (
	"sort"
	"strings"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/internal/storage"
	"workflow-intelligence/pkg/types"
)

// recordConfidenceBoost is the nudge applied when a near-duplicate gotcha is
// recorded again.
const recordConfidenceBoost = 0.1

// QueryResult is a gotcha with its relevance to the query context.
type QueryResult struct {
	Gotcha    *types.Gotcha `json:"gotcha"`
	Relevance float64       `json:"relevance"`
}

// Registry indexes gotchas by keyword. Confidence never decays on its own;
// only explicit deprecation lowers it.
type Registry struct {
	cfg     config.GotchaConfig
	logger  logging.Logger
	gotchas []*types.Gotcha
}

type gotchaFile struct {
	Gotchas []*types.Gotcha `json:"gotchas"`
}

// New loads the registry from its flat file. A missing or corrupt file is an
// empty registry, not an error.
func New(cfg config.GotchaConfig, logger logging.Logger) *Registry {
	r := &Registry{cfg: cfg, logger: logger.WithComponent("gotchas")}

	var file gotchaFile
	if err := storage.LoadJSON(cfg.StorePath, &file); err != nil {
		r.logger.Warn("gotcha store unreadable, starting empty", "path", cfg.StorePath, "error", err)
		return r
	}
	r.gotchas = file.Gotchas
	return r
}

// Record stores a gotcha, merging it into an existing near-duplicate (keyword
// overlap above the relevance threshold) instead of duplicating. Returns the
// stored record.
func (r *Registry) Record(g *types.Gotcha) (*types.Gotcha, error) {
	if len(g.Keywords) == 0 {
		g.Keywords = ExtractKeywords(g.Pattern + " " + g.Context)
	}

	for _, existing := range r.gotchas {
		if keywordOverlap(g.Keywords, existing.Keywords) >= r.cfg.RelevanceThreshold {
			existing.Occurrences++
			existing.Confidence += recordConfidenceBoost
			if existing.Confidence > 1.0 {
				existing.Confidence = 1.0
			}
			existing.UpdatedAt = g.UpdatedAt
			if err := r.save(); err != nil {
				return nil, err
			}
			r.logger.Debug("merged gotcha into existing record", "id", existing.ID, "occurrences", existing.Occurrences)
			return existing, nil
		}
	}

	r.gotchas = append(r.gotchas, g)
	if err := r.save(); err != nil {
		return nil, err
	}
	r.logger.Info("recorded new gotcha", "id", g.ID, "keywords", len(g.Keywords))
	return g, nil
}

// Query scores every stored gotcha by keyword overlap with the context and
// returns the top results above the relevance threshold, filtered by minimum
// confidence.
func (r *Registry) Query(context string) []QueryResult {
	queryKeywords := ExtractKeywords(context)
	if len(queryKeywords) == 0 {
		return nil
	}

	var results []QueryResult
	for _, g := range r.gotchas {
		if g.Confidence < r.cfg.MinConfidence {
			continue
		}
		relevance := keywordOverlap(queryKeywords, g.Keywords)
		if relevance < r.cfg.RelevanceThreshold {
			continue
		}
		results = append(results, QueryResult{Gotcha: g, Relevance: relevance})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > r.cfg.MaxResults {
		results = results[:r.cfg.MaxResults]
	}
	return results
}

// Get returns a gotcha by id.
func (r *Registry) Get(id string) (*types.Gotcha, bool) {
	for _, g := range r.gotchas {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// All returns every stored gotcha.
func (r *Registry) All() []*types.Gotcha {
	out := make([]*types.Gotcha, len(r.gotchas))
	copy(out, r.gotchas)
	return out
}

// Deprecate lowers a gotcha's confidence explicitly. This is the only path
// that reduces gotcha confidence.
func (r *Registry) Deprecate(id string) error {
	for _, g := range r.gotchas {
		if g.ID == id {
			g.Confidence = 0
			return r.save()
		}
	}
	return nil
}

func (r *Registry) save() error {
	return storage.SaveJSON(r.cfg.StorePath, &gotchaFile{Gotchas: r.gotchas})
}

// ExtractKeywords splits text on non-word boundaries and keeps lowercase
// words longer than two characters, deduplicated.
func ExtractKeywords(text string) []string {
	words := types.TokenizeCommand(strings.ToLower(text))
	seen := make(map[string]bool, len(words))
	var keywords []string
	for _, w := range words {
		if len(w) <= 2 || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

// keywordOverlap is the fraction of query keywords present in the gotcha's
// keyword set.
func keywordOverlap(query, stored []string) float64 {
	if len(query) == 0 || len(stored) == 0 {
		return 0
	}
	set := make(map[string]bool, len(stored))
	for _, k := range stored {
		set[k] = true
	}
	matches := 0
	for _, k := range query {
		if set[k] {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}
