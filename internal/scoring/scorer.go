// Package scoring implements multi-factor confidence scoring for next-action
// candidates against live session context.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/pkg/types"
)

// Candidate is a next-action suggestion enriched with the evidence the scorer
// evaluates: the trigger command, the agent sequence it belongs to and the key
// commands expected in recent history.
type Candidate struct {
	Suggestion  types.Suggestion
	Trigger     string
	Agents      []string
	KeyCommands []string
}

// Scorer computes a weighted confidence score from four independent signals.
// The weights are fixed at construction and must sum to exactly 1.0.
type Scorer struct {
	commandWeight float64
	agentWeight   float64
	historyWeight float64
	stateWeight   float64
}

// NewScorer validates the weights and builds a scorer. A weight set that does
// not sum to 1.0 is a construction error, not a call-time concern.
func NewScorer(cfg config.ScoringConfig) (*Scorer, error) {
	sum := cfg.CommandWeight + cfg.AgentWeight + cfg.HistoryWeight + cfg.StateWeight
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		return nil, fmt.Errorf("scoring weights sum to %.4f, want exactly 1.0", sum)
	}
	return &Scorer{
		commandWeight: cfg.CommandWeight,
		agentWeight:   cfg.AgentWeight,
		historyWeight: cfg.HistoryWeight,
		stateWeight:   cfg.StateWeight,
	}, nil
}

// Score returns a confidence in [0,1] for the candidate given the context.
// A nil candidate or nil context scores 0; degraded input never panics.
func (s *Scorer) Score(c *Candidate, ctx *types.SessionContext) float64 {
	if c == nil || ctx == nil {
		return 0
	}

	score := s.MatchCommand(c.trigger(), ctx.LastCommand)*s.commandWeight +
		s.matchAgent(c.Agents, ctx.AgentID)*s.agentWeight +
		s.matchHistory(c.KeyCommands, ctx.LastCommands)*s.historyWeight +
		s.matchState(c.trigger(), &ctx.ProjectState)*s.stateWeight

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Rank scores every candidate, writes the score into its suggestion and
// stable-sorts descending by confidence.
func (s *Scorer) Rank(candidates []Candidate, ctx *types.SessionContext) []Candidate {
	for i := range candidates {
		candidates[i].Suggestion.Confidence = s.Score(&candidates[i], ctx)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Suggestion.Confidence > candidates[j].Suggestion.Confidence
	})
	return candidates
}

func (c *Candidate) trigger() string {
	if c.Trigger != "" {
		return c.Trigger
	}
	return c.Suggestion.Command
}

// MatchCommand scores trigger-vs-last-command similarity: 1.0 on normalized
// equality, otherwise the fraction of word-stems the two share.
func (s *Scorer) MatchCommand(trigger, lastCommand string) float64 {
	nt := types.NormalizeCommand(trigger)
	nc := types.NormalizeCommand(lastCommand)
	if nt == "" || nc == "" {
		return 0
	}
	if nt == nc {
		return 1.0
	}

	triggerTokens := types.TokenizeCommand(nt)
	commandTokens := types.TokenizeCommand(nc)
	if len(triggerTokens) == 0 || len(commandTokens) == 0 {
		return 0
	}

	set := make(map[string]bool, len(triggerTokens))
	for _, tok := range triggerTokens {
		set[tok] = true
	}
	shared := 0
	union := len(set)
	for _, tok := range dedupeTokens(commandTokens) {
		if set[tok] {
			shared++
		} else {
			union++
		}
	}
	return float64(shared) / float64(union)
}

// matchAgent scores 0 when the context agent is absent from the candidate's
// agent sequence; otherwise later positions score higher, because later-stage
// agents are closer to "next".
func (s *Scorer) matchAgent(agents []string, agentID string) float64 {
	if agentID == "" || len(agents) == 0 {
		return 0
	}
	for i, agent := range agents {
		if strings.EqualFold(agent, agentID) {
			return float64(i+1) / float64(len(agents))
		}
	}
	return 0
}

// matchHistory scores the fraction of key commands found in recent history.
// A command near the end of history contributes more than the same command
// found earlier. No key commands means no evidence either way: neutral 0.5.
func (s *Scorer) matchHistory(keyCommands, history []string) float64 {
	if len(keyCommands) == 0 {
		return 0.5
	}
	if len(history) == 0 {
		return 0
	}

	normalized := make([]string, len(history))
	for i, cmd := range history {
		normalized[i] = types.NormalizeCommand(cmd)
	}

	var total float64
	for _, key := range keyCommands {
		target := types.NormalizeCommand(key)
		// Last occurrence wins the bigger recency bonus.
		for i := len(normalized) - 1; i >= 0; i-- {
			if normalized[i] == target {
				recency := float64(i+1) / float64(len(normalized))
				total += 0.5 + 0.5*recency
				break
			}
		}
	}

	score := total / float64(len(keyCommands))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// matchState starts from a neutral 0.5 and boosts when the trigger text
// correlates with a live project-state signal.
func (s *Scorer) matchState(trigger string, state *types.ProjectState) float64 {
	if state == nil {
		return 0.5
	}
	score := 0.5
	lower := strings.ToLower(trigger)

	if state.HasUncommittedChanges && (strings.Contains(lower, "commit") || strings.Contains(lower, "git")) {
		score += 0.3
	}
	if state.FailingTests && (strings.Contains(lower, "test") || strings.Contains(lower, "fix")) {
		score += 0.3
	}
	switch state.Phase {
	case types.PhaseDevelopment:
		if strings.Contains(lower, "develop") {
			score += 0.2
		}
	case types.PhaseReview:
		if strings.Contains(lower, "review") || strings.Contains(lower, "qa") {
			score += 0.2
		}
	case types.PhaseDeployment:
		if strings.Contains(lower, "push") || strings.Contains(lower, "deploy") {
			score += 0.2
		}
	case types.PhasePlanning:
		if strings.Contains(lower, "create") || strings.Contains(lower, "story") || strings.Contains(lower, "epic") {
			score += 0.2
		}
	case types.PhaseUnknown:
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func dedupeTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var result []string
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			result = append(result, tok)
		}
	}
	return result
}
