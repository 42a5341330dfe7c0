// Package registry loads, caches and matches workflow definitions: named
// graphs of states and triggers that describe known multi-step workflows.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/pkg/types"
)

// ErrDefinitionsNotFound is returned when the workflow definitions source is
// missing. This is fatal at load time and never retried.
var ErrDefinitionsNotFound = errors.New("workflow definitions source not found")

// Registry loads and caches workflow definitions and matches command
// histories against them. The cached set is replaced wholesale on reload,
// never partially mutated.
type Registry struct {
	cfg    config.RegistryConfig
	logger logging.Logger

	mu        sync.Mutex
	workflows []types.Workflow
	loadedAt  time.Time
}

// New creates a registry. Definitions are loaded lazily on first use.
func New(cfg config.RegistryConfig, logger logging.Logger) *Registry {
	return &Registry{
		cfg:    cfg,
		logger: logger.WithComponent("registry"),
	}
}

// LoadWorkflows parses and caches the definitions file. A missing file yields
// ErrDefinitionsNotFound; a stale cache is refreshed transparently.
func (r *Registry) LoadWorkflows() ([]types.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.workflows != nil && time.Since(r.loadedAt) < r.cfg.CacheTTL {
		return r.workflows, nil
	}

	data, err := os.ReadFile(r.cfg.DefinitionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionsNotFound, r.cfg.DefinitionsPath)
		}
		return nil, fmt.Errorf("reading workflow definitions: %w", err)
	}

	workflows, err := parseDefinitions(data, r.cfg.DefinitionsPath)
	if err != nil {
		return nil, err
	}

	r.workflows = workflows
	r.loadedAt = time.Now()
	r.logger.Debug("workflow definitions loaded",
		"path", r.cfg.DefinitionsPath, "count", len(workflows))
	return workflows, nil
}

// InvalidateCache forces the next load to re-read the definitions file.
func (r *Registry) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows = nil
	r.loadedAt = time.Time{}
}

// MatchWorkflow normalizes the command history and scores every workflow by
// how many of its transition triggers appear anywhere in it. Returns nil when
// no workflow reaches the trigger threshold. Ties keep the workflow that
// appears first in the definitions file.
func (r *Registry) MatchWorkflow(commandHistory []string) (*types.WorkflowMatch, error) {
	workflows, err := r.LoadWorkflows()
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]bool, len(commandHistory))
	for _, cmd := range commandHistory {
		if n := types.NormalizeCommand(cmd); n != "" {
			normalized[n] = true
		}
	}

	var best *types.WorkflowMatch
	for i := range workflows {
		wf := &workflows[i]
		var matched []string
		for _, tr := range wf.Transitions {
			trigger := types.NormalizeCommand(tr.Trigger)
			if normalized[trigger] {
				matched = append(matched, trigger)
			}
		}
		matched = dedupe(matched)
		// Transitions is a map; sort so the matched set is stable across runs.
		sort.Strings(matched)
		if len(matched) < r.cfg.TriggerThreshold {
			continue
		}
		if best == nil || len(matched) > best.Score {
			best = &types.WorkflowMatch{
				Name:            wf.Name,
				Score:           len(matched),
				MatchedCommands: matched,
			}
		}
	}
	return best, nil
}

// GetWorkflow returns a workflow by name, or nil if unknown.
func (r *Registry) GetWorkflow(name string) (*types.Workflow, error) {
	workflows, err := r.LoadWorkflows()
	if err != nil {
		return nil, err
	}
	for i := range workflows {
		if workflows[i].Name == name {
			return &workflows[i], nil
		}
	}
	return nil, nil
}

// GetTransitions returns the transition out of a state, or nil if absent.
func (r *Registry) GetTransitions(workflow, state string) (*types.Transition, error) {
	wf, err := r.GetWorkflow(workflow)
	if err != nil || wf == nil {
		return nil, err
	}
	tr, ok := wf.Transitions[state]
	if !ok {
		return nil, nil
	}
	return &tr, nil
}

// GetNextSteps returns the next steps for a state sorted by ascending
// priority.
func (r *Registry) GetNextSteps(workflow, state string) ([]types.NextStep, error) {
	wf, err := r.GetWorkflow(workflow)
	if err != nil || wf == nil {
		return nil, err
	}
	return wf.SortedNextSteps(state), nil
}

// FindCurrentState reverse-maps a just-completed trigger command to the state
// whose transition it fires. Returns "" when the command matches no trigger.
func (r *Registry) FindCurrentState(workflow, command string) (string, error) {
	wf, err := r.GetWorkflow(workflow)
	if err != nil || wf == nil {
		return "", err
	}
	target := types.NormalizeCommand(command)
	for state, tr := range wf.Transitions {
		if types.NormalizeCommand(tr.Trigger) == target {
			return state, nil
		}
	}
	return "", nil
}

// Watch invalidates the cache whenever the definitions file changes on disk.
// It blocks until the context is cancelled; callers run it in a goroutine.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating definitions watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(r.cfg.DefinitionsPath); err != nil {
		return fmt.Errorf("watching %s: %w", r.cfg.DefinitionsPath, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				r.logger.Debug("definitions changed, invalidating cache", "event", event.Op.String())
				r.InvalidateCache()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("definitions watcher error", "error", err)
		}
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
