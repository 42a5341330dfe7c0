package types

import (
	"time"

	"github.com/google/uuid"
)

// PatternStatus is the lifecycle state of a learned pattern.
type PatternStatus string

const (
	PatternPending    PatternStatus = "pending"
	PatternActive     PatternStatus = "active"
	PatternDeprecated PatternStatus = "deprecated"
)

// Pattern is a learned, reusable command sequence associated with successful
// workflow executions. Deprecated patterns are retained for audit but excluded
// from suggestion ranking.
type Pattern struct {
	ID          string        `json:"id"`
	Sequence    []string      `json:"sequence"`
	Agents      []string      `json:"agents,omitempty"`
	Occurrences int           `json:"occurrences"`
	SuccessRate float64       `json:"success_rate"`
	Confidence  float64       `json:"confidence"`
	Status      PatternStatus `json:"status"`
	FirstSeen   time.Time     `json:"first_seen"`
	LastSeen    time.Time     `json:"last_seen"`
	Workflow    string        `json:"workflow,omitempty"`
}

// NewPattern creates a pending pattern with a generated id and occurrence 1.
func NewPattern(sequence, agents []string, workflow string) *Pattern {
	now := time.Now().UTC()
	return &Pattern{
		ID:          uuid.New().String(),
		Sequence:    sequence,
		Agents:      agents,
		Occurrences: 1,
		SuccessRate: 1.0,
		Confidence:  0.5,
		Status:      PatternPending,
		FirstSeen:   now,
		LastSeen:    now,
		Workflow:    workflow,
	}
}

// AdjustConfidence applies a delta clamped to [0,1].
func (p *Pattern) AdjustConfidence(delta float64) {
	p.Confidence += delta
	if p.Confidence > 1.0 {
		p.Confidence = 1.0
	}
	if p.Confidence < 0.0 {
		p.Confidence = 0.0
	}
}

// Touch records that the pattern was observed again.
func (p *Pattern) Touch() {
	p.Occurrences++
	p.LastSeen = time.Now().UTC()
}

// SearchableText concatenates the fields semantic search indexes.
func (p *Pattern) SearchableText() string {
	text := p.Workflow
	for _, cmd := range p.Sequence {
		text += " " + cmd
	}
	for _, agent := range p.Agents {
		text += " " + agent
	}
	return text
}

// Gotcha is a recorded anti-pattern: a context + action combination known to
// cause failures. Confidence decays only via explicit deprecation.
type Gotcha struct {
	ID          string    `json:"id"`
	Pattern     string    `json:"pattern"`
	Context     string    `json:"context"`
	Error       string    `json:"error,omitempty"`
	Reason      string    `json:"reason"`
	Alternative string    `json:"alternative,omitempty"`
	Keywords    []string  `json:"keywords"`
	Occurrences int       `json:"occurrences"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Source      string    `json:"source,omitempty"`
}

// NewGotcha creates a gotcha with a generated id and occurrence 1.
func NewGotcha(pattern, context, reason, source string) *Gotcha {
	now := time.Now().UTC()
	return &Gotcha{
		ID:          uuid.New().String(),
		Pattern:     pattern,
		Context:     context,
		Reason:      reason,
		Occurrences: 1,
		Confidence:  0.6,
		CreatedAt:   now,
		UpdatedAt:   now,
		Source:      source,
	}
}
