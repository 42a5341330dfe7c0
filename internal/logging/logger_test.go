package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"info", INFO},
		{"nonsense", INFO},
		{"", INFO},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.in))
		})
	}
}

func TestStructuredLoggerText(t *testing.T) {
	t.Run("emits component and fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewTestLogger(&buf).WithComponent("registry")

		logger.Info("definitions loaded", "count", 3)

		line := buf.String()
		assert.Contains(t, line, "[INFO]")
		assert.Contains(t, line, "component:registry")
		assert.Contains(t, line, "definitions loaded")
		assert.Contains(t, line, "count=3")
	})

	t.Run("trace ID is shortened", func(t *testing.T) {
		var buf bytes.Buffer
		traceID := GenerateTraceID()
		logger := NewTestLogger(&buf).WithTraceID(traceID)

		logger.Warn("cache stale")

		assert.Contains(t, buf.String(), "trace:"+traceID[:8])
		assert.NotContains(t, buf.String(), "trace:"+traceID)
	})

	t.Run("levels below threshold are dropped", func(t *testing.T) {
		var buf bytes.Buffer
		logger := &StructuredLogger{level: WARN, out: &buf}

		logger.Debug("hidden")
		logger.Info("hidden")
		logger.Error("visible")

		assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
		assert.Contains(t, buf.String(), "visible")
	})
}

func TestStructuredLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := &StructuredLogger{level: DEBUG, useJSON: true, out: &buf}

	logger.WithComponent("scoring").WithTraceID("trace-1").Info("ranked", "candidates", 2)

	var e entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "ranked", e.Message)
	assert.Equal(t, "scoring", e.Component)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, float64(2), e.Fields["candidates"])
}
