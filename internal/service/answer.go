package service

import (
	"context"
	"fmt"

	"raganswer/internal/domain"
	"raganswer/internal/fallback"
)

// NoDataAnswer is returned when no source could be read at all.
const NoDataAnswer = "Sorry, I'm not able to provide an answer to that question. [no-data]"

// Tier identifies which resolution stage produced an answer.
type Tier int

const (
	TierEngine Tier = iota
	TierLexical
	TierNoData
)

func (t Tier) String() string {
	switch t {
	case TierEngine:
		return "engine"
	case TierLexical:
		return "lexical"
	case TierNoData:
		return "no-data"
	default:
		return "unknown"
	}
}

// Query is a single question with its engine parameters.
type Query struct {
	Question     string
	Mode         string
	TopK         int
	ForceReindex bool
}

// Resolution is the answer to a Query and the tier that produced it.
type Resolution struct {
	Answer string
	Tier   Tier
}

// Answer resolves a question and returns only the answer text.
func (s *Service) Answer(ctx context.Context, question, mode string, topK int, forceReindex bool) string {
	return s.Resolve(ctx, Query{Question: question, Mode: mode, TopK: topK, ForceReindex: forceReindex}).Answer
}

// Resolve always produces an answer. It first makes sure an indexing pass
// has run, then asks the engine, and falls back to lexical search over the
// raw source text when the engine is absent or its query fails.
func (s *Service) Resolve(ctx context.Context, q Query) Resolution {
	if _, err := s.Initialize(ctx, q.ForceReindex); err != nil {
		s.log.Warn("initialization failed, answering best-effort", "error", err)
	}
	st := s.snapshot()

	if st.handle != nil {
		answer, err := s.query(ctx, st.handle, q)
		if err == nil {
			return Resolution{Answer: answer, Tier: TierEngine}
		}
		s.log.Warn("engine query failed, using local search", "error", err)
	}

	text, ok := st.fallbackText, st.hasFallbackText && st.fallbackText != ""
	if !ok {
		text, ok = fallback.Assemble(ctx, s.sources, s.log)
	}
	if !ok {
		return Resolution{Answer: NoDataAnswer, Tier: TierNoData}
	}
	return Resolution{Answer: fallback.Search(text, q.Question, q.TopK), Tier: TierLexical}
}

// query runs one engine query, turning a panic into an error.
func (s *Service) query(ctx context.Context, handle domain.Index, q Query) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine query panicked: %v", r)
		}
	}()
	return handle.Query(ctx, q.Question, domain.QueryParams{Mode: q.Mode, TopK: q.TopK, Rerank: false})
}
