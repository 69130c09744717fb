// Package app wires the configured engine components into a service.
package app

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"raganswer/internal/chunker"
	"raganswer/internal/config"
	"raganswer/internal/domain"
	"raganswer/internal/embedding/openai"
	"raganswer/internal/embedding/tfidf"
	"raganswer/internal/engine"
	"raganswer/internal/logger"
	"raganswer/internal/resilience"
	"raganswer/internal/service"
	"raganswer/internal/summarizer"
	"raganswer/internal/vectorstore/memory"
	"raganswer/internal/vectorstore/qdrant"
)

// NewService builds the service described by cfg.
func NewService(cfg *config.AppConfig, log logger.Logger) (*service.Service, error) {
	sources, err := cfg.DataSources()
	if err != nil {
		return nil, err
	}
	// a misconfigured engine degrades to local-only answering
	var eng domain.Engine
	if e, err := NewEngine(cfg, log); err != nil {
		log.Warn("retrieval engine unavailable", "error", err)
	} else {
		eng = e
	}
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Indexing.MaxAttempts
	retry.InitialDelay = cfg.RetryDelay()
	return service.New(service.Config{
		Sources: sources,
		Engine:  eng,
		Retry:   retry,
		Logger:  log,
	}), nil
}

// NewEngine assembles the retrieval engine from its configured parts.
func NewEngine(cfg *config.AppConfig, log logger.Logger) (*engine.Engine, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "sentence", "":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var st domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Breaker.Enabled {
		bc := resilience.DefaultCircuitBreakerConfig("retrieval-engine")
		bc.MinRequests = cfg.Breaker.MinRequests
		bc.FailureRatio = cfg.Breaker.FailureRatio
		bc.Timeout = time.Duration(cfg.Breaker.TimeoutSecs) * time.Second
		bc.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}
		breaker = resilience.NewCircuitBreaker(bc)
	}

	return engine.New(engine.Config{
		Chunker:      ch,
		Embedder:     emb,
		Store:        st,
		Summarizer:   sum,
		MaxSentences: cfg.Summarizer.MaxSentences,
		Breaker:      breaker,
	}), nil
}
