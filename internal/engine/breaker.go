package engine

import (
	"context"

	"raganswer/internal/domain"
	"raganswer/internal/resilience"
)

// guardedIndex routes calls through a circuit breaker so a failing store or
// embedder is rejected fast once the breaker opens.
type guardedIndex struct {
	next    domain.Index
	breaker *resilience.CircuitBreaker
}

func (g *guardedIndex) Insert(ctx context.Context, content domain.Content) error {
	return g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.next.Insert(ctx, content)
	})
}

func (g *guardedIndex) Query(ctx context.Context, question string, params domain.QueryParams) (string, error) {
	var answer string
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		answer, err = g.next.Query(ctx, question, params)
		return err
	})
	return answer, err
}
