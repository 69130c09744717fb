package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"raganswer/internal/logger"
	"raganswer/internal/source"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
}

// SourceConfig is one configured data source.
type SourceConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format,omitempty"`
}

// IndexingConfig bounds the per-source retry loop.
type IndexingConfig struct {
	MaxAttempts  int  `yaml:"max_attempts"`
	RetryDelayMs int  `yaml:"retry_delay_ms"`
	WatchSources bool `yaml:"watch_sources"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// BreakerConfig configures the circuit breaker around engine calls.
type BreakerConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
	TimeoutSecs  int     `yaml:"timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Sources     []SourceConfig    `yaml:"sources"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	Logging     logger.Config     `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rag/config.yaml.
// If neither exists, it writes defaults to ~/.config/rag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DataSources converts the configured sources, inferring missing formats
// from the file extension.
func (c *AppConfig) DataSources() ([]source.DataSource, error) {
	out := make([]source.DataSource, 0, len(c.Sources))
	for _, sc := range c.Sources {
		if sc.Path == "" {
			return nil, errors.New("source with empty path")
		}
		f, err := source.ParseFormat(sc.Format, sc.Path)
		if err != nil {
			return nil, err
		}
		out = append(out, source.DataSource{Path: sc.Path, Format: f})
	}
	return out, nil
}

// RetryDelay is the pause between per-source attempts.
func (c *AppConfig) RetryDelay() time.Duration {
	return time.Duration(c.Indexing.RetryDelayMs) * time.Millisecond
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 30
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = 120
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = []SourceConfig{
			{Path: filepath.Join("data", "data.txt"), Format: "text"},
			{Path: filepath.Join("data", "data.json"), Format: "json"},
		}
	}
	if cfg.Indexing.MaxAttempts == 0 {
		cfg.Indexing.MaxAttempts = 3
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "sentence"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
		cfg.Chunker.OverlapSentences = 1
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.Breaker.MinRequests == 0 {
		cfg.Breaker.MinRequests = 5
	}
	if cfg.Breaker.FailureRatio == 0 {
		cfg.Breaker.FailureRatio = 0.6
	}
	if cfg.Breaker.TimeoutSecs == 0 {
		cfg.Breaker.TimeoutSecs = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
}

// applyEnv lets deployments relocate the sources and listener without a
// config file. The text and JSON overrides replace the first source of the
// matching format.
func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("RAG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RAG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	overrideSource(cfg, os.Getenv("RAG_TEXT_SOURCE"), source.Text)
	overrideSource(cfg, os.Getenv("RAG_JSON_SOURCE"), source.JSON)
}

func overrideSource(cfg *AppConfig, path string, format source.Format) {
	if path == "" {
		return
	}
	for i, sc := range cfg.Sources {
		if f, err := source.ParseFormat(sc.Format, sc.Path); err == nil && f == format {
			cfg.Sources[i].Path = path
			return
		}
	}
	cfg.Sources = append(cfg.Sources, SourceConfig{Path: path, Format: format.String()})
}
