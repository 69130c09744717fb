package logger_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raganswer/internal/logger"
)

func TestNewFile_WritesJSONAtConfiguredLevel(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rag.log")
	log := logger.NewFile(logger.Config{Level: "info", Format: "json"}, path)

	log.Debug("hidden")
	log.With("component", "indexer").Info("indexing pass finished", "phase", "fully_indexed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "indexing pass finished", entry["msg"])
	assert.Equal(t, "indexer", entry["component"])
	assert.Equal(t, "fully_indexed", entry["phase"])
}

func TestNewNop_Discards(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		logger.NewNop().With("k", "v").Error("dropped", "error", "x")
	})
}

func TestNewDefault_IsUsableBeforeConfig(t *testing.T) {
	t.Parallel()
	log := logger.NewDefault()
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.With("path", "config.yaml").Debug("not emitted at info") })
}
