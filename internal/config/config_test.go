package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raganswer/internal/config"
	"raganswer/internal/source"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Indexing.MaxAttempts)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 5, cfg.Chunker.SentencesPerChunk)
	assert.Equal(t, 1, cfg.Chunker.OverlapSentences)
	assert.Equal(t, "info", cfg.Logging.Level)

	sources, err := cfg.DataSources()
	require.NoError(t, err)
	assert.Equal(t, []source.DataSource{
		{Path: filepath.Join("data", "data.txt"), Format: source.Text},
		{Path: filepath.Join("data", "data.json"), Format: source.JSON},
	}, sources)
}

func TestLoad_ParsesFileAndFillsGaps(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
sources:
  - path: corpus/notes.md
  - path: corpus/facts.json
indexing:
  max_attempts: 5
  retry_delay_ms: 250
embedder:
  type: openai
  openai:
    model: custom-embed
vector_store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
breaker:
  enabled: true
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Server.ReadTimeoutSecs)
	assert.Equal(t, 5, cfg.Indexing.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay())
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "custom-embed", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MinRequests)

	sources, err := cfg.DataSources()
	require.NoError(t, err)
	assert.Equal(t, []source.DataSource{
		{Path: "corpus/notes.md", Format: source.Text},
		{Path: "corpus/facts.json", Format: source.JSON},
	}, sources)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	t.Parallel()
	_, err := config.Load(writeConfig(t, "server: [unterminated"))

	assert.Error(t, err)
}

func TestDataSources_RejectsBadEntries(t *testing.T) {
	t.Parallel()
	cfg := &config.AppConfig{Sources: []config.SourceConfig{{Path: "a.txt", Format: "xml"}}}
	_, err := cfg.DataSources()
	assert.Error(t, err)

	cfg = &config.AppConfig{Sources: []config.SourceConfig{{Format: "text"}}}
	_, err = cfg.DataSources()
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RAG_ADDR", ":9999")
	t.Setenv("RAG_LOG_LEVEL", "debug")
	t.Setenv("RAG_TEXT_SOURCE", "/srv/corpus.txt")
	t.Setenv("RAG_JSON_SOURCE", "/srv/corpus.json")

	cfg, err := config.Load(writeConfig(t, "sources:\n  - path: only.txt\n"))

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []config.SourceConfig{
		{Path: "/srv/corpus.txt"},
		{Path: "/srv/corpus.json", Format: "json"},
	}, cfg.Sources)
}

func TestSave_RoundTrips(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Server.Addr = ":7000"

	require.NoError(t, config.Save(path, cfg))
	loaded, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7000", loaded.Server.Addr)
	assert.Equal(t, cfg.Sources, loaded.Sources)
}
