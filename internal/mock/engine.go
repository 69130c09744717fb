// Package mock provides func-field doubles of the engine interfaces.
package mock

import (
	"context"
	"sync"

	"raganswer/internal/domain"
)

var (
	_ domain.Engine = (*Engine)(nil)
	_ domain.Index  = (*Index)(nil)
)

// Engine is a mock implementation of domain.Engine.
type Engine struct {
	InitializeFn func(ctx context.Context) (domain.Index, error)

	mu    sync.Mutex
	calls int
}

func (e *Engine) Initialize(ctx context.Context) (domain.Index, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.InitializeFn(ctx)
}

// InitializeCalls returns how many times Initialize was called.
func (e *Engine) InitializeCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Index is a mock implementation of domain.Index that records inserts.
type Index struct {
	InsertFn func(ctx context.Context, content domain.Content) error
	QueryFn  func(ctx context.Context, question string, params domain.QueryParams) (string, error)

	mu       sync.Mutex
	inserted []domain.Content
	queries  []domain.QueryParams
}

func (i *Index) Insert(ctx context.Context, content domain.Content) error {
	i.mu.Lock()
	i.inserted = append(i.inserted, content)
	i.mu.Unlock()
	if i.InsertFn == nil {
		return nil
	}
	return i.InsertFn(ctx, content)
}

func (i *Index) Query(ctx context.Context, question string, params domain.QueryParams) (string, error) {
	i.mu.Lock()
	i.queries = append(i.queries, params)
	i.mu.Unlock()
	return i.QueryFn(ctx, question, params)
}

// Inserted returns every content passed to Insert, including failed ones.
func (i *Index) Inserted() []domain.Content {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]domain.Content(nil), i.inserted...)
}

// Queries returns the params of every Query call.
func (i *Index) Queries() []domain.QueryParams {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]domain.QueryParams(nil), i.queries...)
}

// ReadyEngine returns an Engine whose Initialize always yields idx.
func ReadyEngine(idx domain.Index) *Engine {
	return &Engine{InitializeFn: func(context.Context) (domain.Index, error) { return idx, nil }}
}
