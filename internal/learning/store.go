package learning

import (
	"fmt"
	"sort"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/internal/storage"
	"workflow-intelligence/pkg/types"
)

// Store is the persistence interface for learned patterns. The default
// implementation is a flat JSON file; keeping the interface small lets a real
// key-value store swap in without touching the learning logic.
type Store interface {
	Get(id string) (*types.Pattern, bool)
	All() []*types.Pattern
	Active() []*types.Pattern
	Upsert(pattern *types.Pattern) error
	FindSimilar(sequence []string, threshold float64) (*types.Pattern, DuplicateCheck)
}

// NewStore builds the store backend named in the configuration.
func NewStore(cfg config.LearningConfig, logger logging.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return NewSQLiteStore(cfg, logger)
	case "json", "":
		return NewJSONStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown pattern store backend %q", cfg.StoreBackend)
	}
}

// patternFile is the on-disk shape of the JSON pattern store.
type patternFile struct {
	Patterns []*types.Pattern `json:"patterns"`
}

// JSONStore keeps all patterns in memory and rewrites the backing file
// atomically on every mutation.
type JSONStore struct {
	cfg      config.LearningConfig
	logger   logging.Logger
	patterns []*types.Pattern
	index    map[string]*types.Pattern
}

// NewJSONStore loads the backing file. A missing file is an empty store; a
// corrupt file is logged and treated as empty rather than crashing, since
// learned patterns are an optimization.
func NewJSONStore(cfg config.LearningConfig, logger logging.Logger) (*JSONStore, error) {
	s := &JSONStore{
		cfg:    cfg,
		logger: logger.WithComponent("pattern-store"),
		index:  make(map[string]*types.Pattern),
	}

	var file patternFile
	if err := storage.LoadJSON(cfg.StorePath, &file); err != nil {
		s.logger.Warn("pattern store unreadable, starting empty", "path", cfg.StorePath, "error", err)
		return s, nil
	}
	s.patterns = file.Patterns
	for _, p := range s.patterns {
		s.index[p.ID] = p
	}
	return s, nil
}

// Get returns a pattern by id.
func (s *JSONStore) Get(id string) (*types.Pattern, bool) {
	p, ok := s.index[id]
	return p, ok
}

// All returns every stored pattern, deprecated ones included.
func (s *JSONStore) All() []*types.Pattern {
	out := make([]*types.Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Active returns patterns eligible for suggestion ranking: not deprecated and
// past the promotion thresholds.
func (s *JSONStore) Active() []*types.Pattern {
	var out []*types.Pattern
	for _, p := range s.patterns {
		if isActive(p, s.cfg) {
			out = append(out, p)
		}
	}
	return out
}

func isActive(p *types.Pattern, cfg config.LearningConfig) bool {
	return p.Status != types.PatternDeprecated &&
		p.SuccessRate >= cfg.PromotionSuccess &&
		p.Occurrences >= cfg.PromotionOccurrence
}

// Upsert inserts or replaces a pattern, enforces the size cap by evicting the
// lowest-confidence entries, and persists the whole store.
func (s *JSONStore) Upsert(pattern *types.Pattern) error {
	if existing, ok := s.index[pattern.ID]; ok {
		*existing = *pattern
	} else {
		s.patterns = append(s.patterns, pattern)
		s.index[pattern.ID] = pattern
	}

	if len(s.patterns) > s.cfg.MaxPatterns {
		sort.SliceStable(s.patterns, func(i, j int) bool {
			return s.patterns[i].Confidence > s.patterns[j].Confidence
		})
		for _, evicted := range s.patterns[s.cfg.MaxPatterns:] {
			delete(s.index, evicted.ID)
			s.logger.Debug("evicting low-confidence pattern", "id", evicted.ID, "confidence", evicted.Confidence)
		}
		s.patterns = s.patterns[:s.cfg.MaxPatterns]
	}

	return storage.SaveJSON(s.cfg.StorePath, &patternFile{Patterns: s.patterns})
}

// FindSimilar returns the stored pattern most similar to the sequence, if any
// scores at or above the threshold.
func (s *JSONStore) FindSimilar(sequence []string, threshold float64) (*types.Pattern, DuplicateCheck) {
	var best *types.Pattern
	var bestCheck DuplicateCheck
	for _, p := range s.patterns {
		check := CompareSequences(sequence, p.Sequence)
		if check.Similarity > bestCheck.Similarity {
			best = p
			bestCheck = check
		}
	}
	if best == nil || bestCheck.Similarity < threshold {
		return nil, bestCheck
	}
	return best, bestCheck
}
