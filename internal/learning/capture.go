// Package learning observes completed sessions, extracts reusable command
// sequences, validates them and persists them with confidence and occurrence
// metadata. The pipeline is capture -> validate -> dedupe/merge -> store.
package learning

import (
	"workflow-intelligence/internal/config"
	"workflow-intelligence/pkg/types"
)

// CaptureResult is the typed outcome of closing a session buffer. Rejections
// carry a reason instead of an error; a failed capture is normal operation.
type CaptureResult struct {
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
	Sequence []string `json:"sequence,omitempty"`
	Agents   []string `json:"agents,omitempty"`
	Workflow string   `json:"workflow,omitempty"`
}

// Capture buffers commands per session until a workflow-ending command or an
// explicit completion signal closes the buffer.
type Capture struct {
	cfg     config.LearningConfig
	buffers map[string]*sessionBuffer
}

type sessionBuffer struct {
	commands []string
	agents   []string
	workflow string
}

// NewCapture creates an empty capture buffer set.
func NewCapture(cfg config.LearningConfig) *Capture {
	return &Capture{
		cfg:     cfg,
		buffers: make(map[string]*sessionBuffer),
	}
}

// Observe appends a command to the session buffer. When the command is a
// recognized workflow-ending command the buffer is closed as successful and
// the capture result returned; otherwise Observe returns nil.
func (c *Capture) Observe(sessionID, command, agentID string) *CaptureResult {
	buf := c.buffer(sessionID)
	normalized := types.NormalizeCommand(command)
	if normalized == "" {
		return nil
	}
	buf.commands = append(buf.commands, normalized)
	if agentID != "" && (len(buf.agents) == 0 || buf.agents[len(buf.agents)-1] != agentID) {
		buf.agents = append(buf.agents, agentID)
	}

	if c.isEndCommand(normalized) {
		return c.Complete(sessionID, true)
	}
	return nil
}

// SetWorkflow tags the session buffer with the workflow it belongs to.
func (c *Capture) SetWorkflow(sessionID, workflow string) {
	c.buffer(sessionID).workflow = workflow
}

// Complete closes a session buffer. Failed sessions reset the buffer but are
// never stored. Successful sessions must meet the minimum length and contain
// at least one key workflow command to yield a candidate.
func (c *Capture) Complete(sessionID string, successful bool) *CaptureResult {
	buf, ok := c.buffers[sessionID]
	delete(c.buffers, sessionID)
	if !ok || len(buf.commands) == 0 {
		return &CaptureResult{Valid: false, Reason: "empty session"}
	}
	if !successful {
		return &CaptureResult{Valid: false, Reason: "session not successful"}
	}
	if len(buf.commands) < c.cfg.MinSequenceLength {
		return &CaptureResult{
			Valid:  false,
			Reason: "sequence shorter than minimum length",
		}
	}
	if !c.containsKeyCommand(buf.commands) {
		return &CaptureResult{Valid: false, Reason: "no key workflow command in sequence"}
	}
	return &CaptureResult{
		Valid:    true,
		Sequence: buf.commands,
		Agents:   buf.agents,
		Workflow: buf.workflow,
	}
}

// Pending returns the number of commands buffered for a session.
func (c *Capture) Pending(sessionID string) int {
	if buf, ok := c.buffers[sessionID]; ok {
		return len(buf.commands)
	}
	return 0
}

func (c *Capture) buffer(sessionID string) *sessionBuffer {
	buf, ok := c.buffers[sessionID]
	if !ok {
		buf = &sessionBuffer{}
		c.buffers[sessionID] = buf
	}
	return buf
}

func (c *Capture) isEndCommand(command string) bool {
	for _, end := range c.cfg.EndCommands {
		if command == end {
			return true
		}
	}
	return false
}

func (c *Capture) containsKeyCommand(sequence []string) bool {
	for _, cmd := range sequence {
		for _, key := range c.cfg.KeyCommands {
			if cmd == key {
				return true
			}
		}
	}
	return false
}
