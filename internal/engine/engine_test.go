package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raganswer/internal/chunker"
	"raganswer/internal/domain"
	"raganswer/internal/embedding/tfidf"
	"raganswer/internal/engine"
	"raganswer/internal/resilience"
	"raganswer/internal/summarizer"
	"raganswer/internal/vectorstore/memory"
)

const napoleon = "Napoleon was a French emperor. He won at Austerlitz. Paris is a city."

// faultyStore wraps the in-memory store with injectable failures.
type faultyStore struct {
	*memory.Storage
	pingErr   error
	upsertErr error
}

func (f *faultyStore) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return f.Storage.Ping(ctx)
}

func (f *faultyStore) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Storage.Upsert(ctx, chunks, vectors)
}

func newConfig(store domain.VectorStore) engine.Config {
	return engine.Config{
		Chunker:    chunker.NewSentenceChunker(1, 0),
		Embedder:   tfidf.NewEmbedder(),
		Store:      store,
		Summarizer: summarizer.NewFrequencySummarizer(),
	}
}

func newIndex(t *testing.T, store domain.VectorStore) domain.Index {
	t.Helper()
	idx, err := engine.New(newConfig(store)).Initialize(context.Background())
	require.NoError(t, err)
	return idx
}

func TestIndex_NaiveQueryReturnsBestChunk(t *testing.T) {
	t.Parallel()
	idx := newIndex(t, memory.NewStorage())
	require.NoError(t, idx.Insert(context.Background(), domain.Content{Source: "data.txt", Text: napoleon}))

	answer, err := idx.Query(context.Background(), "Austerlitz", domain.QueryParams{Mode: "naive", TopK: 1})

	require.NoError(t, err)
	assert.Equal(t, "He won at Austerlitz.", answer)
}

func TestIndex_SummarizingModes(t *testing.T) {
	t.Parallel()
	idx := newIndex(t, memory.NewStorage())
	require.NoError(t, idx.Insert(context.Background(), domain.Content{Source: "data.txt", Text: napoleon}))

	for _, mode := range []string{"local", "global", "hybrid", "mix"} {
		answer, err := idx.Query(context.Background(), "Who was the French emperor?", domain.QueryParams{Mode: mode, TopK: 5})
		require.NoError(t, err, mode)
		assert.Contains(t, answer, "Napoleon was a French emperor.", mode)
	}
}

func TestIndex_StructuredContentIsRendered(t *testing.T) {
	t.Parallel()
	idx := newIndex(t, memory.NewStorage())
	data := map[string]any{"battles": []any{"Austerlitz"}}
	require.NoError(t, idx.Insert(context.Background(), domain.Content{Source: "data.json", Data: data}))

	answer, err := idx.Query(context.Background(), "Austerlitz", domain.QueryParams{Mode: "naive", TopK: 1})

	require.NoError(t, err)
	assert.Equal(t, "battles[1]: Austerlitz", answer)
}

func TestIndex_ReinsertReplacesSource(t *testing.T) {
	t.Parallel()
	store := memory.NewStorage()
	idx := newIndex(t, store)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, domain.Content{Source: "a.txt", Text: "One fact. Two facts."}))
	assert.Equal(t, 2, store.Len())
	require.NoError(t, idx.Insert(ctx, domain.Content{Source: "a.txt", Text: "Three facts."}))
	assert.Equal(t, 1, store.Len())
	require.NoError(t, idx.Insert(ctx, domain.Content{Source: "b.txt", Text: "Four facts."}))
	assert.Equal(t, 2, store.Len())
}

func TestIndex_FailedInsertKeepsPreviousContent(t *testing.T) {
	t.Parallel()
	store := &faultyStore{Storage: memory.NewStorage()}
	idx := newIndex(t, store)
	ctx := context.Background()
	require.NoError(t, idx.Insert(ctx, domain.Content{Source: "data.txt", Text: napoleon}))

	store.upsertErr = errors.New("disk full")
	require.Error(t, idx.Insert(ctx, domain.Content{Source: "more.txt", Text: "Wellington was a general."}))
	store.upsertErr = nil

	answer, err := idx.Query(ctx, "Austerlitz", domain.QueryParams{Mode: "naive", TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, "He won at Austerlitz.", answer)
}

func TestIndex_RejectsEmptyContent(t *testing.T) {
	t.Parallel()
	idx := newIndex(t, memory.NewStorage())

	assert.Error(t, idx.Insert(context.Background(), domain.Content{Source: "blank.txt", Text: "  \n"}))
}

func TestIndex_QueryErrors(t *testing.T) {
	t.Parallel()
	idx := newIndex(t, memory.NewStorage())

	_, err := idx.Query(context.Background(), "anything", domain.QueryParams{Mode: "mix", TopK: 5})
	assert.ErrorIs(t, err, engine.ErrEmptyIndex)

	require.NoError(t, idx.Insert(context.Background(), domain.Content{Source: "data.txt", Text: napoleon}))
	_, err = idx.Query(context.Background(), "anything", domain.QueryParams{Mode: "bogus", TopK: 5})
	assert.Error(t, err)
}

func TestIndex_UnknownTermsGetNoAnswer(t *testing.T) {
	t.Parallel()
	idx := newIndex(t, memory.NewStorage())
	require.NoError(t, idx.Insert(context.Background(), domain.Content{Source: "data.txt", Text: napoleon}))

	answer, err := idx.Query(context.Background(), "zeppelin?", domain.QueryParams{Mode: "mix", TopK: 5})

	require.NoError(t, err)
	assert.Equal(t, "I could not find information related to: zeppelin?", answer)
}

func TestEngine_InitializeFailures(t *testing.T) {
	t.Parallel()
	_, err := engine.New(engine.Config{}).Initialize(context.Background())
	assert.Error(t, err)

	down := errors.New("connection refused")
	store := &faultyStore{Storage: memory.NewStorage(), pingErr: down}
	_, err = engine.New(newConfig(store)).Initialize(context.Background())
	assert.ErrorIs(t, err, down)
}

func TestEngine_BreakerRejectsAfterRepeatedFailures(t *testing.T) {
	t.Parallel()
	cbCfg := resilience.DefaultCircuitBreakerConfig("engine")
	cbCfg.MinRequests = 2
	cbCfg.FailureRatio = 0.5
	cfg := newConfig(&faultyStore{Storage: memory.NewStorage(), upsertErr: errors.New("store down")})
	cfg.Breaker = resilience.NewCircuitBreaker(cbCfg)
	idx, err := engine.New(cfg).Initialize(context.Background())
	require.NoError(t, err)
	content := domain.Content{Source: "data.txt", Text: napoleon}

	require.Error(t, idx.Insert(context.Background(), content))
	require.Error(t, idx.Insert(context.Background(), content))
	assert.ErrorIs(t, idx.Insert(context.Background(), content), resilience.ErrCircuitOpen)
}

func TestValidMode(t *testing.T) {
	t.Parallel()
	for _, m := range engine.Modes {
		assert.True(t, engine.ValidMode(m), m)
	}
	assert.False(t, engine.ValidMode("MIX"))
	assert.False(t, engine.ValidMode(""))
}
