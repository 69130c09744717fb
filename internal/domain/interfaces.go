package domain

import "context"

// Document represents a single source loaded into the engine.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a semantically meaningful part of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Content is what gets inserted into an engine index. Exactly one of Text
// or Data is meaningful: text sources carry raw Text, JSON sources carry
// their parsed structure in Data.
type Content struct {
	Source string
	Text   string
	Data   any
}

// IsStructured reports whether the content carries a parsed structure.
func (c Content) IsStructured() bool { return c.Data != nil }

// QueryParams controls a single engine query.
type QueryParams struct {
	Mode   string
	TopK   int
	Rerank bool
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Ping(ctx context.Context) error
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Engine is the retrieval engine seam. Initialize constructs or connects
// the engine and returns a handle used for all further calls.
type Engine interface {
	Initialize(ctx context.Context) (Index, error)
}

// Index is a live engine handle.
type Index interface {
	Insert(ctx context.Context, content Content) error
	Query(ctx context.Context, question string, params QueryParams) (string, error)
}
