// Package logging provides structured logging with component tagging and
// trace IDs for correlating engine calls.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logging interface used across the engine.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	WithComponent(component string) Logger
	WithTraceID(traceID string) Logger
}

// LogLevel represents logging levels.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// ParseLogLevel maps a level name to a LogLevel, defaulting to INFO.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// entry is the wire shape of one log line in JSON mode.
type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// StructuredLogger writes JSON or plain-text log lines to a writer.
type StructuredLogger struct {
	level     LogLevel
	component string
	traceID   string
	useJSON   bool
	out       io.Writer
}

// NewLogger creates a logger writing to stderr. Format "json" emits one JSON
// object per line; anything else emits human-readable text.
func NewLogger(level LogLevel, format string) Logger {
	return &StructuredLogger{
		level:   level,
		useJSON: strings.EqualFold(format, "json"),
		out:     os.Stderr,
	}
}

// NewTestLogger creates a text logger writing to the given writer, for tests.
func NewTestLogger(out io.Writer) Logger {
	return &StructuredLogger{level: DEBUG, out: out}
}

// NewNoop returns a logger that discards everything.
func NewNoop() Logger {
	return &StructuredLogger{level: ERROR + 1, out: io.Discard}
}

// WithComponent returns a copy of the logger tagged with a component name.
func (l *StructuredLogger) WithComponent(component string) Logger {
	c := *l
	c.component = component
	return &c
}

// WithTraceID returns a copy of the logger carrying a trace ID.
func (l *StructuredLogger) WithTraceID(traceID string) Logger {
	c := *l
	c.traceID = traceID
	return &c
}

func (l *StructuredLogger) Debug(msg string, fields ...interface{}) { l.log(DEBUG, msg, fields...) }
func (l *StructuredLogger) Info(msg string, fields ...interface{})  { l.log(INFO, msg, fields...) }
func (l *StructuredLogger) Warn(msg string, fields ...interface{})  { l.log(WARN, msg, fields...) }
func (l *StructuredLogger) Error(msg string, fields ...interface{}) { l.log(ERROR, msg, fields...) }

func (l *StructuredLogger) log(level LogLevel, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}

	fieldMap := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		fieldMap[fmt.Sprintf("%v", fields[i])] = fields[i+1]
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelNames[level],
		Message:   msg,
		Component: l.component,
		TraceID:   l.traceID,
		Fields:    fieldMap,
	}

	if l.useJSON {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
			return
		}
		fmt.Fprintln(l.out, string(data))
		return
	}

	parts := []string{e.Timestamp, "[" + e.Level + "]"}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	if e.TraceID != "" && len(e.TraceID) >= 8 {
		parts = append(parts, "trace:"+e.TraceID[:8])
	}
	parts = append(parts, e.Message)
	for k, v := range fieldMap {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	fmt.Fprintln(l.out, strings.Join(parts, " "))
}

// GenerateTraceID returns a fresh trace identifier.
func GenerateTraceID() string {
	return uuid.New().String()
}
