package learning

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/pkg/types"
)

// SQLiteStore is the alternative pattern store backend. It implements the
// same Store interface as the JSON store over a single local database file,
// so the learning logic is unaware of which backend it runs on.
type SQLiteStore struct {
	cfg    config.LearningConfig
	logger logging.Logger
	db     *sql.DB
}

const patternSchema = `
CREATE TABLE IF NOT EXISTS patterns (
	id           TEXT PRIMARY KEY,
	sequence     TEXT NOT NULL,
	agents       TEXT,
	occurrences  INTEGER NOT NULL DEFAULT 1,
	success_rate REAL NOT NULL DEFAULT 1.0,
	confidence   REAL NOT NULL DEFAULT 0.5,
	status       TEXT NOT NULL DEFAULT 'pending',
	first_seen   TEXT NOT NULL,
	last_seen    TEXT NOT NULL,
	workflow     TEXT
);
CREATE INDEX IF NOT EXISTS idx_patterns_status ON patterns(status);
`

// NewSQLiteStore opens (creating if necessary) the database file derived from
// the configured store path.
func NewSQLiteStore(cfg config.LearningConfig, logger logging.Logger) (*SQLiteStore, error) {
	path := strings.TrimSuffix(cfg.StorePath, ".json") + ".db"
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening pattern database %s: %w", path, err)
	}
	if _, err := db.Exec(patternSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing pattern schema: %w", err)
	}
	return &SQLiteStore{
		cfg:    cfg,
		logger: logger.WithComponent("pattern-store-sqlite"),
		db:     db,
	}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns a pattern by id.
func (s *SQLiteStore) Get(id string) (*types.Pattern, bool) {
	row := s.db.QueryRow(`SELECT id, sequence, agents, occurrences, success_rate,
		confidence, status, first_seen, last_seen, workflow FROM patterns WHERE id = ?`, id)
	p, err := scanPattern(row)
	if err != nil {
		return nil, false
	}
	return p, true
}

// All returns every stored pattern.
func (s *SQLiteStore) All() []*types.Pattern {
	return s.query(`SELECT id, sequence, agents, occurrences, success_rate,
		confidence, status, first_seen, last_seen, workflow FROM patterns`)
}

// Active returns patterns eligible for suggestion ranking.
func (s *SQLiteStore) Active() []*types.Pattern {
	return s.query(`SELECT id, sequence, agents, occurrences, success_rate,
		confidence, status, first_seen, last_seen, workflow FROM patterns
		WHERE status != 'deprecated' AND success_rate >= ? AND occurrences >= ?`,
		s.cfg.PromotionSuccess, s.cfg.PromotionOccurrence)
}

// Upsert inserts or replaces a pattern and enforces the size cap by deleting
// the lowest-confidence entries beyond it.
func (s *SQLiteStore) Upsert(pattern *types.Pattern) error {
	sequence, err := json.Marshal(pattern.Sequence)
	if err != nil {
		return fmt.Errorf("encoding sequence: %w", err)
	}
	agents, err := json.Marshal(pattern.Agents)
	if err != nil {
		return fmt.Errorf("encoding agents: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO patterns
		(id, sequence, agents, occurrences, success_rate, confidence, status, first_seen, last_seen, workflow)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sequence = excluded.sequence,
			agents = excluded.agents,
			occurrences = excluded.occurrences,
			success_rate = excluded.success_rate,
			confidence = excluded.confidence,
			status = excluded.status,
			last_seen = excluded.last_seen,
			workflow = excluded.workflow`,
		pattern.ID, string(sequence), string(agents), pattern.Occurrences,
		pattern.SuccessRate, pattern.Confidence, string(pattern.Status),
		pattern.FirstSeen.Format(time.RFC3339Nano), pattern.LastSeen.Format(time.RFC3339Nano),
		pattern.Workflow)
	if err != nil {
		return fmt.Errorf("upserting pattern %s: %w", pattern.ID, err)
	}

	_, err = s.db.Exec(`DELETE FROM patterns WHERE id IN (
		SELECT id FROM patterns ORDER BY confidence DESC
		LIMIT -1 OFFSET ?)`, s.cfg.MaxPatterns)
	if err != nil {
		return fmt.Errorf("enforcing pattern cap: %w", err)
	}
	return nil
}

// FindSimilar scans all patterns for the closest sequence. Similarity lives
// in Go, not SQL, so both backends score identically.
func (s *SQLiteStore) FindSimilar(sequence []string, threshold float64) (*types.Pattern, DuplicateCheck) {
	var best *types.Pattern
	var bestCheck DuplicateCheck
	for _, p := range s.All() {
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

func (s *SQLiteStore) query(query string, args ...interface{}) []*types.Pattern {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		s.logger.Warn("pattern query failed", "error", err)
		return nil
	}
	defer func() { _ = rows.Close() }()

	var patterns []*types.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable pattern row", "error", err)
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPattern(row rowScanner) (*types.Pattern, error) {
	var p types.Pattern
	var sequence, agents, status, firstSeen, lastSeen string
	var workflow sql.NullString

	err := row.Scan(&p.ID, &sequence, &agents, &p.Occurrences, &p.SuccessRate,
		&p.Confidence, &status, &firstSeen, &lastSeen, &workflow)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sequence), &p.Sequence); err != nil {
		return nil, fmt.Errorf("decoding sequence: %w", err)
	}
	if agents != "" {
		if err := json.Unmarshal([]byte(agents), &p.Agents); err != nil {
			return nil, fmt.Errorf("decoding agents: %w", err)
		}
	}
	p.Status = types.PatternStatus(status)
	if p.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
		return nil, fmt.Errorf("decoding first_seen: %w", err)
	}
	if p.LastSeen, err = time.Parse(time.RFC3339Nano, lastSeen); err != nil {
		return nil, fmt.Errorf("decoding last_seen: %w", err)
	}
	p.Workflow = workflow.String
	return &p, nil
}
