// Package suggest produces ranked next-action suggestions by combining
// workflow definitions, learned patterns, deterministic project-state signals
// and a static per-agent fallback.
package suggest

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/gotcha"
	"workflow-intelligence/internal/learning"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/internal/registry"
	"workflow-intelligence/internal/scoring"
	"workflow-intelligence/pkg/types"
)

// Per-pattern boost caps. Occurrences contribute at most maxOccurrenceBoost;
// success rate and history-match similarity each contribute a slice of their
// 0.05 share.
const (
	occurrenceBoostStep = 0.02
	maxOccurrenceBoost  = 0.1
	successBoostWeight  = 0.05
	similarityWeight    = 0.05

	// A pattern prefix must align with the recent history at least this well
	// before its next command earns a boost.
	successorMatchThreshold = 0.5

	deterministicConfidence = 0.9
)

// Engine assembles suggestions from the registry, the scorer and the learned
// pattern store. Results are cached per context fingerprint for a short TTL.
type Engine struct {
	cfg      config.SuggestConfig
	logger   logging.Logger
	registry *registry.Registry
	scorer   *scoring.Scorer
	patterns learning.Store
	gotchas  *gotcha.Registry
	sessions *SessionLog

	mu          sync.Mutex
	cacheKey    uint64
	cacheResult *types.SuggestionResult
	cacheAt     time.Time
}

// NewEngine wires the suggestion pipeline.
func NewEngine(
	cfg config.SuggestConfig,
	reg *registry.Registry,
	scorer *scoring.Scorer,
	patterns learning.Store,
	gotchas *gotcha.Registry,
	sessions *SessionLog,
	logger logging.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		logger:   logger.WithComponent("suggest"),
		registry: reg,
		scorer:   scorer,
		patterns: patterns,
		gotchas:  gotchas,
		sessions: sessions,
	}
}

// Sessions exposes the session log for callers that record commands.
func (e *Engine) Sessions() *SessionLog {
	return e.sessions
}

// Suggest returns ranked suggestions for the context. Identical contexts
// within the cache TTL return the cached result without recomputation.
func (e *Engine) Suggest(ctx *types.SessionContext) *types.SuggestionResult {
	if ctx == nil {
		ctx = &types.SessionContext{}
	}

	key := contextFingerprint(ctx)
	e.mu.Lock()
	if e.cacheResult != nil && key == e.cacheKey && time.Since(e.cacheAt) < e.cfg.CacheTTL {
		cached := e.cacheResult
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	result := e.suggest(ctx)

	e.mu.Lock()
	e.cacheKey = key
	e.cacheResult = result
	e.cacheAt = time.Now()
	e.mu.Unlock()
	return result
}

// InvalidateCache drops the cached result.
func (e *Engine) InvalidateCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cacheResult = nil
}

func (e *Engine) suggest(ctx *types.SessionContext) *types.SuggestionResult {
	result := &types.SuggestionResult{GeneratedAt: time.Now()}

	history := ctx.LastCommands
	if len(history) == 0 && ctx.LastCommand != "" {
		history = []string{ctx.LastCommand}
	}

	match, err := e.registry.MatchWorkflow(history)
	switch {
	case err != nil:
		e.logger.Warn("workflow matching unavailable, using fallback", "error", err)
		result.Suggestions = fallbackSuggestions(strings.ToLower(ctx.AgentID))
		result.Message = "workflow definitions unavailable"
		result.IsUncertain = true
	case match == nil:
		result.Suggestions = fallbackSuggestions(strings.ToLower(ctx.AgentID))
		result.Message = "no workflow matched recent activity"
		result.IsUncertain = true
	default:
		result.Workflow = match.Name
		result.Suggestions = e.workflowSuggestions(match, ctx, history, result)
	}

	result.Suggestions = prependDeterministic(deterministicSignals(ctx), result.Suggestions)
	if len(result.Suggestions) > e.cfg.MaxSuggestions {
		result.Suggestions = result.Suggestions[:e.cfg.MaxSuggestions]
	}
	result.Confidence = meanConfidence(result.Suggestions)
	if result.Confidence < e.cfg.UncertaintyThreshold {
		result.IsUncertain = true
	}

	e.attachGotchaWarning(ctx, result)
	return result
}

// workflowSuggestions resolves the current state, ranks the definition's next
// steps against the context and boosts any step that a learned pattern
// matching the recent history predicts next.
func (e *Engine) workflowSuggestions(match *types.WorkflowMatch, ctx *types.SessionContext, history []string, result *types.SuggestionResult) []types.Suggestion {
	state, err := e.registry.FindCurrentState(match.Name, ctx.LastCommand)
	if err != nil || state == "" {
		e.logger.Debug("no current state resolved", "workflow", match.Name, "command", ctx.LastCommand)
		return fallbackSuggestions(strings.ToLower(ctx.AgentID))
	}
	result.CurrentState = state

	steps, err := e.registry.GetNextSteps(match.Name, state)
	if err != nil || len(steps) == 0 {
		return fallbackSuggestions(strings.ToLower(ctx.AgentID))
	}

	candidates := make([]scoring.Candidate, 0, len(steps))
	for _, step := range steps {
		candidates = append(candidates, scoring.Candidate{
			Suggestion: types.Suggestion{
				Command:     step.Command,
				Args:        expandArgs(step.ArgsTemplate, ctx),
				Description: step.Description,
				Priority:    step.Priority,
				Source:      types.SourceWorkflow,
			},
			Trigger:     step.Command,
			KeyCommands: match.MatchedCommands,
		})
	}
	candidates = e.scorer.Rank(candidates, ctx)

	boosts := e.patternSuccessors(history)
	suggestions := make([]types.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		s := c.Suggestion
		if b, ok := boosts[s.Command]; ok {
			e.applyPatternBoost(&s, b)
		}
		suggestions = append(suggestions, s)
	}
	// Boosts can reorder; keep the strongest first.
	sortByConfidence(suggestions)
	return suggestions
}

// patternBoost pairs a learned pattern with how well its prefix aligned with
// the recent command history.
type patternBoost struct {
	pattern    *types.Pattern
	similarity float64
}

// patternSuccessors aligns every active pattern's prefix against the tail of
// the command history and returns, per predicted next command, the strongest
// supporting pattern. Patterns that do not match the history contribute
// nothing, no matter how strong they are on their own.
func (e *Engine) patternSuccessors(history []string) map[string]patternBoost {
	if len(history) == 0 {
		return nil
	}
	active := e.patterns.Active()
	if len(active) == 0 {
		return nil
	}

	successors := make(map[string]patternBoost)
	for _, p := range active {
		next, similarity := predictNext(history, p.Sequence)
		if next == "" || similarity < successorMatchThreshold {
			continue
		}
		if prev, ok := successors[next]; !ok || similarity > prev.similarity {
			successors[next] = patternBoost{pattern: p, similarity: similarity}
		}
	}
	return successors
}

// predictNext finds the best alignment of the history's tail with a prefix of
// the pattern sequence and returns the command the pattern executes after
// that prefix, with the alignment similarity. Empty when nothing aligns or
// the pattern has no remaining command to predict.
func predictNext(history, sequence []string) (string, float64) {
	maxPrefix := len(history)
	if maxPrefix > len(sequence)-1 {
		maxPrefix = len(sequence) - 1
	}

	var best string
	var bestSimilarity float64
	for prefix := 1; prefix <= maxPrefix; prefix++ {
		check := learning.CompareSequences(history[len(history)-prefix:], sequence[:prefix])
		if check.Similarity > bestSimilarity {
			bestSimilarity = check.Similarity
			best = sequence[prefix]
		}
	}
	return best, bestSimilarity
}

// applyPatternBoost raises a suggestion's confidence using the pattern that
// predicted its command. The boost grows with the pattern's occurrence count,
// success rate and the history match similarity, capped at 1.0 total.
func (e *Engine) applyPatternBoost(s *types.Suggestion, b patternBoost) {
	occBoost := float64(b.pattern.Occurrences) * occurrenceBoostStep
	if occBoost > maxOccurrenceBoost {
		occBoost = maxOccurrenceBoost
	}
	boost := e.cfg.PatternBoostBase +
		occBoost +
		b.pattern.SuccessRate*successBoostWeight +
		b.similarity*similarityWeight

	s.Confidence += boost
	if s.Confidence > 1.0 {
		s.Confidence = 1.0
	}
	s.Source = types.SourcePattern
	e.logger.Debug("pattern boost applied",
		"command", s.Command, "pattern", b.pattern.ID, "boost", boost)
}

// attachGotchaWarning surfaces the most relevant known failure mode for the
// current context, if any.
func (e *Engine) attachGotchaWarning(ctx *types.SessionContext, result *types.SuggestionResult) {
	if e.gotchas == nil {
		return
	}
	queryText := strings.TrimSpace(ctx.LastCommand + " " + strings.Join(ctx.LastCommands, " "))
	if queryText == "" {
		return
	}
	hits := e.gotchas.Query(queryText)
	if len(hits) == 0 {
		return
	}
	warning := fmt.Sprintf("caution: %s", hits[0].Gotcha.Context)
	if result.Message == "" {
		result.Message = warning
	} else {
		result.Message += "; " + warning
	}
}

// deterministicSignals produces hard-signal suggestions that outrank scored
// ones: uncommitted changes mean commit, failing tests mean test.
func deterministicSignals(ctx *types.SessionContext) []types.Suggestion {
	var signals []types.Suggestion
	if ctx.ProjectState.FailingTests {
		signals = append(signals, types.Suggestion{
			Command:     "test",
			Description: "Tests are failing; fix and rerun before anything else",
			Confidence:  deterministicConfidence,
			Source:      types.SourceDeterministic,
		})
	}
	if ctx.ProjectState.HasUncommittedChanges {
		signals = append(signals, types.Suggestion{
			Command:     "commit",
			Description: "Uncommitted changes present; commit completed work",
			Confidence:  deterministicConfidence,
			Source:      types.SourceDeterministic,
		})
	}
	return signals
}

// prependDeterministic places deterministic signals first and drops scored
// duplicates of the same command.
func prependDeterministic(signals, scored []types.Suggestion) []types.Suggestion {
	if len(signals) == 0 {
		return scored
	}
	seen := make(map[string]bool, len(signals))
	for _, s := range signals {
		seen[s.Command] = true
	}
	out := make([]types.Suggestion, 0, len(signals)+len(scored))
	out = append(out, signals...)
	for _, s := range scored {
		if !seen[s.Command] {
			out = append(out, s)
		}
	}
	return out
}

func expandArgs(template string, ctx *types.SessionContext) string {
	if template == "" {
		return ""
	}
	expanded := strings.ReplaceAll(template, "{story_path}", ctx.StoryPath)
	expanded = strings.ReplaceAll(expanded, "{branch}", ctx.Branch)
	return strings.TrimSpace(expanded)
}

func sortByConfidence(suggestions []types.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
}

func meanConfidence(suggestions []types.Suggestion) float64 {
	if len(suggestions) == 0 {
		return 0
	}
	var total float64
	for _, s := range suggestions {
		total += s.Confidence
	}
	return total / float64(len(suggestions))
}

// contextFingerprint hashes the fields that determine a suggestion result:
// agent, last command, the three most recent history entries, story path and
// branch.
func contextFingerprint(ctx *types.SessionContext) uint64 {
	h := fnv.New64a()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	write(ctx.AgentID)
	write(ctx.LastCommand)
	start := len(ctx.LastCommands) - 3
	if start < 0 {
		start = 0
	}
	for _, cmd := range ctx.LastCommands[start:] {
		write(cmd)
	}
	write(ctx.StoryPath)
	write(ctx.Branch)
	return h.Sum64()
}
