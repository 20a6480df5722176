package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo("warn", &buf)
	l.Info("dropped")
	l.Warn("kept", zap.String("run_id", "abc"))
	require.NoError(t, l.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "abc", entry["run_id"])
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo("verbose", &buf)
	l.Debug("dropped")
	l.Info("kept")
	require.NoError(t, l.Sync())
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.NotContains(t, buf.String(), "dropped")
}
