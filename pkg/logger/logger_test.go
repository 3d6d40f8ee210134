package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func TestInit_WritesStructuredLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	require.NoError(t, Init(path, "debug"))

	Info("test message", zap.String("event_type", "test_event"))
	Debug("debug message")
	require.NoError(t, Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	assert.Contains(t, content, "test message")
	assert.Contains(t, content, "test_event")
	assert.Contains(t, content, "debug message")
}

func TestInit_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	require.NoError(t, Init(path, "warn"))

	Info("filtered out")
	Warn("kept")
	require.NoError(t, Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	assert.NotContains(t, content, "filtered out")
	assert.Contains(t, content, "kept")
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	require.NoError(t, Init(path, "bogus"))

	Debug("filtered out")
	Info("kept")
	require.NoError(t, Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.TrimSpace(string(raw))
	assert.NotContains(t, lines, "filtered out")
	assert.Contains(t, lines, "kept")
}

func TestFatal_TestModeDoesNotExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	require.NoError(t, Init(path, "info"))
	SetTestMode(true)
	defer SetTestMode(false)

	Fatal("fatal message")
	require.NoError(t, Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "fatal message")
}
