package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zen-systems/repairdesk/pkg/config"
)

func setupTestLogger(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	buf := new(bytes.Buffer)
	Initialize(cfg, zapcore.AddSync(buf))
	return buf
}

func TestInitializeConsole(t *testing.T) {
	buf := setupTestLogger(t, config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "desk"})

	GetLogger().Info("classified symptom", zap.String("category", "battery"))
	Sync()

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "desk")
	assert.Contains(t, out, "classified symptom")
	assert.Contains(t, out, "battery")
}

func TestInitializeJSON(t *testing.T) {
	buf := setupTestLogger(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "desk"})

	GetLogger().Warn("graph issue", zap.String("node", "n2"))
	GetLogger().Debug("filtered out")
	Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "graph issue", entry["msg"])
	assert.Equal(t, "n2", entry["node"])
	assert.Equal(t, "desk", entry["logger"])
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	buf := setupTestLogger(t, config.LoggerConfig{Level: "loud", Format: "json"})

	GetLogger().Debug("hidden")
	GetLogger().Info("shown")
	Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitializeOnlyOnce(t *testing.T) {
	first := setupTestLogger(t, config.LoggerConfig{Level: "info", Format: "json"})
	second := new(bytes.Buffer)
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(second))

	GetLogger().Info("once")
	Sync()

	assert.Contains(t, first.String(), "once")
	assert.Empty(t, second.String())
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repairdesk.log")
	setupTestLogger(t, config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1})

	GetLogger().Info("to file")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "to file", entry["msg"])
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("dropped")
	Sync()
}
