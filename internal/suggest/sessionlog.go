package suggest

import (
	"sync"
	"time"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
	"workflow-intelligence/internal/storage"
)

// maxLogEntries bounds the per-session command history kept on disk.
const maxLogEntries = 50

// LogEntry is one observed command in a session.
type LogEntry struct {
	Command   string    `json:"command"`
	AgentID   string    `json:"agent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionLog persists recent command history per session so context can be
// rebuilt across invocations.
type SessionLog struct {
	cfg    config.SessionConfig
	logger logging.Logger

	mu       sync.Mutex
	sessions map[string][]LogEntry
}

type sessionLogFile struct {
	Sessions map[string][]LogEntry `json:"sessions"`
}

// NewSessionLog loads the log from its flat file. Missing or corrupt files
// start empty.
func NewSessionLog(cfg config.SessionConfig, logger logging.Logger) *SessionLog {
	l := &SessionLog{
		cfg:      cfg,
		logger:   logger.WithComponent("sessionlog"),
		sessions: make(map[string][]LogEntry),
	}

	var file sessionLogFile
	if err := storage.LoadJSON(cfg.LogPath, &file); err != nil {
		l.logger.Warn("session log unreadable, starting empty", "path", cfg.LogPath, "error", err)
		return l
	}
	if file.Sessions != nil {
		l.sessions = file.Sessions
	}
	return l
}

// Append records a command for a session, trimming the oldest entries beyond
// the cap, and persists the log.
func (l *SessionLog) Append(sessionID, command, agentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.sessions[sessionID], LogEntry{
		Command:   command,
		AgentID:   agentID,
		Timestamp: time.Now(),
	})
	if len(entries) > maxLogEntries {
		entries = entries[len(entries)-maxLogEntries:]
	}
	l.sessions[sessionID] = entries
	return l.save()
}

// Recent returns the last n commands for a session, oldest first.
func (l *SessionLog) Recent(sessionID string, n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.sessions[sessionID]
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	commands := make([]string, len(entries))
	for i, e := range entries {
		commands[i] = e.Command
	}
	return commands
}

// Clear drops a session's history and persists.
func (l *SessionLog) Clear(sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, sessionID)
	return l.save()
}

func (l *SessionLog) save() error {
	return storage.SaveJSON(l.cfg.LogPath, &sessionLogFile{Sessions: l.sessions})
}
