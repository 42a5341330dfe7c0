package suggest

import (
	"os"
	"path/filepath"
	"strings"

	"workflow-intelligence/pkg/types"
)

// ContextInput carries the raw per-invocation signals the caller knows about.
// Everything is optional; the builder fills gaps from the session log and the
// repository on disk.
type ContextInput struct {
	SessionID    string
	AgentID      string
	LastCommand  string
	LastCommands []string
	StoryPath    string
	WorkingDir   string
	ProjectState types.ProjectState
}

// BuildContext assembles a SessionContext from the input, the persisted
// session log and the git branch on disk. Explicit input always wins over
// recovered signals.
func (e *Engine) BuildContext(in ContextInput) *types.SessionContext {
	ctx := &types.SessionContext{
		AgentID:      in.AgentID,
		LastCommand:  in.LastCommand,
		LastCommands: in.LastCommands,
		StoryPath:    in.StoryPath,
		ProjectState: in.ProjectState,
	}

	if len(ctx.LastCommands) == 0 && in.SessionID != "" {
		ctx.LastCommands = e.sessions.Recent(in.SessionID, maxLogEntries)
	}
	if ctx.LastCommand == "" && len(ctx.LastCommands) > 0 {
		ctx.LastCommand = ctx.LastCommands[len(ctx.LastCommands)-1]
	}

	ctx.Branch = readGitBranch(in.WorkingDir)

	if ctx.ProjectState.Phase == "" || ctx.ProjectState.Phase == types.PhaseUnknown {
		ctx.ProjectState.Phase = inferPhase(ctx)
	}
	return ctx
}

// inferPhase derives the coarse phase. A story path in progress means
// development; otherwise the branch name and then the last command decide.
func inferPhase(ctx *types.SessionContext) types.WorkflowPhase {
	if ctx.StoryPath != "" {
		return types.PhaseDevelopment
	}
	if phase := phaseFromText(ctx.Branch); phase != types.PhaseUnknown {
		return phase
	}
	if phase := phaseFromText(ctx.LastCommand); phase != types.PhaseUnknown {
		return phase
	}
	for i := len(ctx.LastCommands) - 1; i >= 0; i-- {
		if phase := phaseFromText(ctx.LastCommands[i]); phase != types.PhaseUnknown {
			return phase
		}
	}
	return types.PhaseUnknown
}

func phaseFromText(text string) types.WorkflowPhase {
	lower := strings.ToLower(text)
	switch {
	case lower == "":
		return types.PhaseUnknown
	case strings.Contains(lower, "develop") || strings.Contains(lower, "feature") || strings.Contains(lower, "fix"):
		return types.PhaseDevelopment
	case strings.Contains(lower, "review") || strings.Contains(lower, "qa"):
		return types.PhaseReview
	case strings.Contains(lower, "push") || strings.Contains(lower, "deploy") || strings.Contains(lower, "release"):
		return types.PhaseDeployment
	case strings.Contains(lower, "create") || strings.Contains(lower, "story") || strings.Contains(lower, "epic") || strings.Contains(lower, "plan"):
		return types.PhasePlanning
	default:
		return types.PhaseUnknown
	}
}

// readGitBranch reads .git/HEAD directly instead of shelling out. Detached
// heads and missing repositories yield "".
func readGitBranch(dir string) string {
	if dir == "" {
		dir = "."
	}
	data, err := os.ReadFile(filepath.Join(dir, ".git", "HEAD"))
	if err != nil {
		return ""
	}
	head := strings.TrimSpace(string(data))
	const prefix = "ref: refs/heads/"
	if strings.HasPrefix(head, prefix) {
		return strings.TrimPrefix(head, prefix)
	}
	return ""
}
