package suggest

import "workflow-intelligence/pkg/types"

// fallbackConfidence marks fallback suggestions as low-trust without zeroing
// them out of the ranking.
const fallbackConfidence = 0.3

// agentFallbacks is the static per-agent table used when no workflow can be
// matched. Keys are lowercase agent ids; the empty key is the default.
var agentFallbacks = map[string][]types.Suggestion{
	"sm": {
		{Command: "create-story", Description: "Draft the next story", Source: types.SourceFallback, Confidence: fallbackConfidence},
		{Command: "create-epic", Description: "Draft a new epic", Source: types.SourceFallback, Confidence: fallbackConfidence},
	},
	"dev": {
		{Command: "develop", Description: "Implement the current story", Source: types.SourceFallback, Confidence: fallbackConfidence},
		{Command: "test", Description: "Run the test suite", Source: types.SourceFallback, Confidence: fallbackConfidence},
		{Command: "commit", Description: "Commit completed work", Source: types.SourceFallback, Confidence: fallbackConfidence},
	},
	"qa": {
		{Command: "review", Description: "Review the latest changes", Source: types.SourceFallback, Confidence: fallbackConfidence},
		{Command: "qa-gate", Description: "Run the quality gate", Source: types.SourceFallback, Confidence: fallbackConfidence},
	},
	"po": {
		{Command: "validate", Description: "Validate story acceptance criteria", Source: types.SourceFallback, Confidence: fallbackConfidence},
		{Command: "shard-doc", Description: "Shard the product document", Source: types.SourceFallback, Confidence: fallbackConfidence},
	},
	"": {
		{Command: "create-story", Description: "Start by drafting a story", Source: types.SourceFallback, Confidence: fallbackConfidence},
		{Command: "develop", Description: "Continue implementation", Source: types.SourceFallback, Confidence: fallbackConfidence},
		{Command: "review", Description: "Review recent changes", Source: types.SourceFallback, Confidence: fallbackConfidence},
	},
}

// fallbackSuggestions returns a copy of the static table entry for the agent,
// or the default entry for unknown agents.
func fallbackSuggestions(agentID string) []types.Suggestion {
	entry, ok := agentFallbacks[agentID]
	if !ok {
		entry = agentFallbacks[""]
	}
	out := make([]types.Suggestion, len(entry))
	copy(out, entry)
	return out
}
