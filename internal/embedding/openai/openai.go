package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"raganswer/internal/resilience"
)

// Client is an OpenAI-compatible embeddings client implementing the Embedder interface.
type Client struct {
	client    *goopenai.Client
	model     string
	dimension atomic.Int64
	retry     resilience.RetryConfig
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	retry := resilience.DefaultRetryConfig()
	retry.InitialDelay = 200 * time.Millisecond
	retry.MaxDelay = 5 * time.Second
	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		retry:  retry,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding. The dimension is learned
// from the first response.
func (c *Client) Prepare(corpus []string) error { return nil }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	var vec []float64
	_, err := resilience.Retry(ctx, c.retry, func(int) error {
		resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Input: []string{text},
			Model: goopenai.EmbeddingModel(c.model),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return errors.New("no embedding returned")
		}
		src := resp.Data[0].Embedding
		vec = make([]float64, len(src))
		for i, v := range src {
			vec[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	c.dimension.CompareAndSwap(0, int64(len(vec)))
	return vec, nil
}
