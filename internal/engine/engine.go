// Package engine implements the retrieval engine behind the domain.Engine
// seam: documents are chunked, embedded and stored in a vector store, and
// answers are summarized from the best matching chunks.
package engine

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"raganswer/internal/domain"
	"raganswer/internal/resilience"
	"raganswer/internal/source"
)

// ErrEmptyIndex is returned when querying an index nothing was inserted into.
var ErrEmptyIndex = errors.New("engine index is empty")

// Modes lists the accepted query modes.
var Modes = []string{"local", "global", "hybrid", "naive", "mix"}

// ValidMode reports whether mode is one of Modes.
func ValidMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Config assembles an Engine from its building blocks.
type Config struct {
	Chunker      domain.Chunker
	Embedder     domain.Embedder
	Store        domain.VectorStore
	Summarizer   domain.Summarizer
	MaxSentences int
	// Breaker, when set, guards Insert and Query of every handle.
	Breaker *resilience.CircuitBreaker
}

// Engine connects to its vector store and hands out indexes.
type Engine struct {
	cfg Config
}

var _ domain.Engine = (*Engine)(nil)

// New returns an Engine over cfg. MaxSentences defaults to 5.
func New(cfg Config) *Engine {
	if cfg.MaxSentences <= 0 {
		cfg.MaxSentences = 5
	}
	return &Engine{cfg: cfg}
}

// Initialize checks the vector store and returns a fresh, empty index.
func (e *Engine) Initialize(ctx context.Context) (domain.Index, error) {
	if e.cfg.Chunker == nil || e.cfg.Embedder == nil || e.cfg.Store == nil || e.cfg.Summarizer == nil {
		return nil, errors.New("engine: incomplete configuration")
	}
	if err := e.cfg.Store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("engine: vector store unavailable: %w", err)
	}
	var idx domain.Index = &index{cfg: e.cfg}
	if e.cfg.Breaker != nil {
		idx = &guardedIndex{next: idx, breaker: e.cfg.Breaker}
	}
	return idx, nil
}

type index struct {
	cfg Config

	mu     sync.RWMutex
	docs   []string // document ids in insertion order
	chunks map[string][]domain.Chunk
}

// Insert chunks the content and rebuilds the vector index over everything
// inserted so far. Inserting the same source again replaces it.
func (ix *index) Insert(ctx context.Context, content domain.Content) error {
	text := strings.TrimSpace(source.ContentText(content))
	if text == "" {
		return errors.New("engine: empty content")
	}
	doc := domain.Document{ID: documentID(content, text), Path: content.Source, Content: text}
	chunks, err := ix.cfg.Chunker.Chunk(doc)
	if err != nil {
		return fmt.Errorf("engine: chunk %s: %w", doc.Path, err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("engine: no chunks produced for %s", doc.Path)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	next := make(map[string][]domain.Chunk, len(ix.chunks)+1)
	for k, v := range ix.chunks {
		next[k] = v
	}
	docs := ix.docs
	if _, ok := next[doc.ID]; !ok {
		docs = append(append([]string(nil), docs...), doc.ID)
	}
	next[doc.ID] = chunks

	if err := ix.rebuild(ctx, docs, next); err != nil {
		// put the store back to the last committed content
		if len(ix.docs) > 0 {
			_ = ix.rebuild(ctx, ix.docs, ix.chunks)
		}
		return err
	}
	ix.docs, ix.chunks = docs, next
	return nil
}

func (ix *index) rebuild(ctx context.Context, docs []string, chunks map[string][]domain.Chunk) error {
	var all []domain.Chunk
	for _, id := range docs {
		all = append(all, chunks[id]...)
	}
	texts := make([]string, len(all))
	for i, ch := range all {
		texts[i] = ch.Text
	}
	if err := ix.cfg.Embedder.Prepare(texts); err != nil {
		return fmt.Errorf("engine: prepare embedder: %w", err)
	}
	vectors := make([][]float64, len(all))
	for i := range all {
		vec, err := ix.cfg.Embedder.Embed(ctx, all[i].Text)
		if err != nil {
			return fmt.Errorf("engine: embed chunk %s: %w", all[i].ChunkID, err)
		}
		vectors[i] = vec
	}
	if err := ix.cfg.Store.Init(ctx, len(vectors[0])); err != nil {
		return fmt.Errorf("engine: init store: %w", err)
	}
	if err := ix.cfg.Store.Upsert(ctx, all, vectors); err != nil {
		return fmt.Errorf("engine: upsert: %w", err)
	}
	return nil
}

// Query answers question from the topK best chunks. Mode "naive" returns
// the chunks verbatim; the other modes summarize them.
func (ix *index) Query(ctx context.Context, question string, params domain.QueryParams) (string, error) {
	if !ValidMode(params.Mode) {
		return "", fmt.Errorf("engine: unknown mode %q", params.Mode)
	}
	topK := params.TopK
	if topK <= 0 {
		topK = 5
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.docs) == 0 {
		return "", ErrEmptyIndex
	}

	vec, err := ix.cfg.Embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("engine: embed question: %w", err)
	}
	var results []domain.SearchResult
	if !isZero(vec) {
		results, err = ix.cfg.Store.Search(ctx, vec, topK)
		if err != nil {
			return "", fmt.Errorf("engine: search: %w", err)
		}
	}
	if allZero(results) {
		results = lexicalRank(ix.ordered(), question, topK)
	}
	if len(results) == 0 {
		return noAnswer(question), nil
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	if params.Mode == "naive" {
		return strings.Join(texts, "\n"), nil
	}
	summary, err := ix.cfg.Summarizer.Summarize(strings.Join(texts, "\n"), ix.cfg.MaxSentences)
	if err != nil {
		return "", fmt.Errorf("engine: summarize: %w", err)
	}
	return summary, nil
}

func (ix *index) ordered() []domain.Chunk {
	var all []domain.Chunk
	for _, id := range ix.docs {
		all = append(all, ix.chunks[id]...)
	}
	return all
}

func noAnswer(question string) string {
	return "I could not find information related to: " + question
}

func documentID(c domain.Content, text string) string {
	key := c.Source
	if key == "" {
		key = text
	}
	h := sha1.Sum([]byte(key))
	return hex.EncodeToString(h[:8])
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func allZero(results []domain.SearchResult) bool {
	for _, r := range results {
		if r.Score > 1e-9 {
			return false
		}
	}
	return true
}
