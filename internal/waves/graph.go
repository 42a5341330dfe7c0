package waves

import (
	"fmt"
	"strings"
)

// CircularDependencyError reports a cycle in a task graph. It is a structural
// authoring error and must propagate to the caller; degrading to sequential
// execution would hide the bug.
type CircularDependencyError struct {
	Cycle      []string
	Suggestion string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s (%s)",
		strings.Join(e.Cycle, " -> "), e.Suggestion)
}

func newCircularDependencyError(cycle []string) *CircularDependencyError {
	suggestion := "remove one dependency on the loop"
	if len(cycle) >= 2 {
		suggestion = fmt.Sprintf("break edge %s -> %s", cycle[len(cycle)-1], cycle[0])
	} else if len(cycle) == 1 {
		suggestion = fmt.Sprintf("remove self-dependency on %s", cycle[0])
	}
	return &CircularDependencyError{Cycle: cycle, Suggestion: suggestion}
}

// dependencyGraph holds adjacency both ways, keyed by task id. Nodes keeps
// input order so waves and paths are deterministic.
type dependencyGraph struct {
	nodes     []string
	edges     map[string][]string // dependency -> dependents
	inEdges   map[string][]string // task -> its dependencies
	durations map[string]int
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// findCycle performs a three-color DFS and returns the first cycle found as
// an ordered list of ids, or nil for an acyclic graph. A self-loop is a cycle
// of length 1.
func (g *dependencyGraph) findCycle() []string {
	color := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = colorGray
		stack = append(stack, node)
		for _, next := range g.edges[node] {
			switch color[next] {
			case colorGray:
				// Re-entered a gray node: slice the loop out of the stack.
				start := 0
				for i, id := range stack {
					if id == next {
						start = i
						break
					}
				}
				cycle = append([]string{}, stack[start:]...)
				return true
			case colorWhite:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = colorBlack
		return false
	}

	for _, node := range g.nodes {
		if color[node] == colorWhite && visit(node) {
			return cycle
		}
	}
	return nil
}
