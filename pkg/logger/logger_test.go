package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	l, err := NewLogger(&Config{Level: InfoLevel, Format: format, AppName: "teambuilder", Version: "test"})
	require.NoError(t, err)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_JSONRunSummary(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	l.WithField("message", "shadowed").LogRunSummary("run-1", 10, 7, 1, 2, 0, 3, 1500*time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "teambuilder", entry["app"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, float64(7), entry["updated"])
	assert.Equal(t, float64(1500), entry["duration_ms"])
	assert.Equal(t, "shadowed", entry["fields.message"])
	assert.Equal(t, "Team count calculation finished with issues", entry["message"])
}

func TestLogger_TextPromotesRunAndUID(t *testing.T) {
	l, buf := newBufferLogger(t, "text")

	l.WithRunID("run-2").WithUID("A").WithField("b", 2).WithField("a", 1).Info("written")

	line := buf.String()
	assert.Contains(t, line, "[INFO] [teambuilder] [run_id=run-2] [uid=A] written a=1 b=2")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.SetLevel(DebugLevel)
	l.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_WithFieldDoesNotLeak(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	_ = l.WithField("child", true)
	l.Info("parent")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["child"]
	assert.False(t, ok)
}
