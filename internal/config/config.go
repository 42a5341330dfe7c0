// Package config holds the engine configuration: scoring weights, cache TTLs,
// learning thresholds, store locations and the synonym groups used by semantic
// search. Everything tunable lives here so behavior can be adjusted without
// recompilation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full engine configuration.
type Config struct {
	Registry RegistryConfig `json:"registry" validate:"required"`
	Scoring  ScoringConfig  `json:"scoring" validate:"required"`
	Waves    WavesConfig    `json:"waves"`
	Suggest  SuggestConfig  `json:"suggest"`
	Learning LearningConfig `json:"learning"`
	Gotchas  GotchaConfig   `json:"gotchas"`
	QA       QAConfig       `json:"qa"`
	Search   SearchConfig   `json:"search"`
	Session  SessionConfig  `json:"session"`
	Logging  LoggingConfig  `json:"logging"`
}

// RegistryConfig configures workflow definition loading.
type RegistryConfig struct {
	DefinitionsPath  string        `json:"definitions_path" validate:"required"`
	CacheTTL         time.Duration `json:"cache_ttl"`
	TriggerThreshold int           `json:"trigger_threshold" validate:"min=1"`
	Watch            bool          `json:"watch"`
}

// ScoringConfig holds the four signal weights. They must sum to exactly 1.0;
// the scorer rejects any other combination at construction.
type ScoringConfig struct {
	CommandWeight float64 `json:"command_weight" validate:"min=0,max=1"`
	AgentWeight   float64 `json:"agent_weight" validate:"min=0,max=1"`
	HistoryWeight float64 `json:"history_weight" validate:"min=0,max=1"`
	StateWeight   float64 `json:"state_weight" validate:"min=0,max=1"`
}

// WavesConfig configures wave analysis durations.
type WavesConfig struct {
	DefaultDuration int            `json:"default_duration" validate:"min=1"`
	DurationTable   map[string]int `json:"duration_table"`
}

// SuggestConfig configures the suggestion engine.
type SuggestConfig struct {
	CacheTTL             time.Duration `json:"cache_ttl"`
	MaxSuggestions       int           `json:"max_suggestions" validate:"min=1"`
	UncertaintyThreshold float64       `json:"uncertainty_threshold"`
	PatternBoostBase     float64       `json:"pattern_boost_base"`
}

// LearningConfig configures pattern capture, validation and storage.
type LearningConfig struct {
	MinSequenceLength   int      `json:"min_sequence_length" validate:"min=1"`
	MaxSequenceLength   int      `json:"max_sequence_length" validate:"min=1"`
	KeyCommands         []string `json:"key_commands"`
	KnownCommands       []string `json:"known_commands"`
	EndCommands         []string `json:"end_commands"`
	MergeThreshold      float64  `json:"merge_threshold" validate:"min=0,max=1"`
	PromotionSuccess    float64  `json:"promotion_success" validate:"min=0,max=1"`
	PromotionOccurrence int      `json:"promotion_occurrence" validate:"min=1"`
	MaxPatterns         int      `json:"max_patterns" validate:"min=1"`
	StorePath           string   `json:"store_path"`
	StoreBackend        string   `json:"store_backend" validate:"oneof=json sqlite"`
}

// GotchaConfig configures the gotcha registry.
type GotchaConfig struct {
	StorePath          string  `json:"store_path"`
	RelevanceThreshold float64 `json:"relevance_threshold" validate:"min=0,max=1"`
	MinConfidence      float64 `json:"min_confidence" validate:"min=0,max=1"`
	MaxResults         int     `json:"max_results" validate:"min=1"`
}

// QAConfig configures quality feedback processing.
type QAConfig struct {
	FeedbackPath        string  `json:"feedback_path"`
	FailureLimit        int     `json:"failure_limit" validate:"min=1"`
	SuccessDelta        float64 `json:"success_delta"`
	PartialDelta        float64 `json:"partial_delta"`
	FailureDelta        float64 `json:"failure_delta"`
	CriticalDelta       float64 `json:"critical_delta"`
	AlternativeMinRate  float64 `json:"alternative_min_rate"`
	AlternativeMinExecs int     `json:"alternative_min_execs"`
}

// SearchConfig configures semantic search. Synonym groups are data, not code,
// so they can be tuned without recompilation.
type SearchConfig struct {
	MinScore      float64       `json:"min_score" validate:"min=0,max=1"`
	MaxResults    int           `json:"max_results" validate:"min=1"`
	CacheTTL      time.Duration `json:"cache_ttl"`
	SynonymGroups [][]string    `json:"synonym_groups"`
}

// SessionConfig configures session context assembly.
type SessionConfig struct {
	LogPath string `json:"log_path"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "json" or "text"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			DefinitionsPath:  "./data/workflows.yaml",
			CacheTTL:         5 * time.Minute,
			TriggerThreshold: 2,
			Watch:            false,
		},
		Scoring: ScoringConfig{
			CommandWeight: 0.40,
			AgentWeight:   0.25,
			HistoryWeight: 0.20,
			StateWeight:   0.15,
		},
		Waves: WavesConfig{
			DefaultDuration: 15,
			DurationTable: map[string]int{
				"create-story":  10,
				"create-epic":   15,
				"develop":       45,
				"review":        20,
				"qa-gate":       15,
				"test":          15,
				"commit":        5,
				"push":          5,
				"deploy":        20,
				"document":      15,
				"shard-doc":     10,
				"risk-profile":  10,
				"test-design":   15,
			},
		},
		Suggest: SuggestConfig{
			CacheTTL:             5 * time.Minute,
			MaxSuggestions:       5,
			UncertaintyThreshold: 0.5,
			PatternBoostBase:     0.05,
		},
		Learning: LearningConfig{
			MinSequenceLength: 3,
			MaxSequenceLength: 20,
			KeyCommands: []string{
				"create-story", "create-epic", "develop", "review",
				"qa-gate", "risk-profile", "test-design", "shard-doc",
			},
			KnownCommands: []string{
				"create-story", "create-epic", "create-prd", "develop",
				"review", "qa-gate", "risk-profile", "test-design",
				"shard-doc", "document", "test", "commit", "push",
				"deploy", "pr", "validate", "correct-course",
			},
			EndCommands:         []string{"push", "pr", "deploy", "complete", "done", "finish"},
			MergeThreshold:      0.85,
			PromotionSuccess:    0.8,
			PromotionOccurrence: 2,
			MaxPatterns:         200,
			StorePath:           "./data/patterns.json",
			StoreBackend:        "json",
		},
		Gotchas: GotchaConfig{
			StorePath:          "./data/gotchas.json",
			RelevanceThreshold: 0.7,
			MinConfidence:      0.5,
			MaxResults:         5,
		},
		QA: QAConfig{
			FeedbackPath:        "./data/feedback.json",
			FailureLimit:        3,
			SuccessDelta:        0.05,
			PartialDelta:        -0.05,
			FailureDelta:        -0.1,
			CriticalDelta:       -0.2,
			AlternativeMinRate:  0.8,
			AlternativeMinExecs: 3,
		},
		Search: SearchConfig{
			MinScore:   0.3,
			MaxResults: 10,
			CacheTTL:   2 * time.Minute,
			SynonymGroups: [][]string{
				{"create", "make", "generate", "add", "new"},
				{"delete", "remove", "drop", "destroy"},
				{"update", "modify", "change", "edit"},
				{"test", "verify", "check", "validate"},
				{"deploy", "release", "ship", "publish"},
				{"review", "inspect", "audit", "qa"},
				{"fix", "repair", "resolve", "patch"},
				{"story", "task", "ticket", "issue"},
			},
		},
		Session: SessionConfig{
			LogPath: "./data/session.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional .env file and
// environment overrides, then validates it.
func LoadConfig() (*Config, error) {
	// Best-effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if v := os.Getenv("WFI_DEFINITIONS_PATH"); v != "" {
		cfg.Registry.DefinitionsPath = v
	}
	if v := os.Getenv("WFI_DATA_DIR"); v != "" {
		cfg.Learning.StorePath = v + "/patterns.json"
		cfg.Gotchas.StorePath = v + "/gotchas.json"
		cfg.QA.FeedbackPath = v + "/feedback.json"
		cfg.Session.LogPath = v + "/session.json"
	}
	if v := os.Getenv("WFI_STORE_BACKEND"); v != "" {
		cfg.Learning.StoreBackend = v
	}
	if v := os.Getenv("WFI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WFI_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WFI_CACHE_TTL_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WFI_CACHE_TTL_SECONDS %q: %w", v, err)
		}
		cfg.Registry.CacheTTL = time.Duration(secs) * time.Second
		cfg.Suggest.CacheTTL = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("WFI_WATCH_DEFINITIONS"); v != "" {
		cfg.Registry.Watch = v == "true" || v == "1"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints plus the scoring-weight invariant.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	sum := c.Scoring.CommandWeight + c.Scoring.AgentWeight + c.Scoring.HistoryWeight + c.Scoring.StateWeight
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("scoring weights sum to %.4f, want exactly 1.0", sum)
	}
	if c.Learning.MinSequenceLength > c.Learning.MaxSequenceLength {
		return fmt.Errorf("learning min sequence length %d exceeds max %d",
			c.Learning.MinSequenceLength, c.Learning.MaxSequenceLength)
	}
	return nil
}
