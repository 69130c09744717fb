package service

import (
	"context"
	"fmt"

	"raganswer/internal/domain"
	"raganswer/internal/fallback"
	"raganswer/internal/resilience"
	"raganswer/internal/source"
)

// fallbackSourceName labels the assembled fallback text inside the engine.
const fallbackSourceName = "fallback"

// Initialize validates the sources and, when no engine handle exists or
// forceReindex is set, runs a full indexing pass. Only source validation
// errors are returned; engine and indexing failures end in a degraded
// phase instead. With a handle already present and forceReindex unset it
// returns the previous outcome without doing any work.
//
// Calls arriving while a pass is in flight wait for that pass and share its
// result, whatever their forceReindex value. The pass itself is not
// cancelled when ctx is.
func (s *Service) Initialize(ctx context.Context, forceReindex bool) (Outcome, error) {
	s.mu.Lock()
	if p := s.running; p != nil {
		s.mu.Unlock()
		<-p.done
		return p.outcome, p.err
	}
	if !forceReindex && s.state.handle != nil {
		out := s.state.outcome
		s.mu.Unlock()
		return out, nil
	}
	p := &pass{done: make(chan struct{})}
	s.running = p
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = nil
		s.mu.Unlock()
		close(p.done)
	}()

	p.outcome, p.err = s.run(context.WithoutCancel(ctx))
	return p.outcome, p.err
}

func (s *Service) run(ctx context.Context) (Outcome, error) {
	if err := source.Validate(s.sources); err != nil {
		s.log.Warn("source validation failed", "error", err)
		return Outcome{}, err
	}

	next := s.build(ctx)

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	out := next.outcome
	s.log.Info("indexing pass finished",
		"phase", out.Phase.String(),
		"indexed", len(out.Indexed),
		"failed", len(out.Failed),
		"attempts", out.Attempts,
		"fallback_text", out.FallbackTextAvailable)
	return out, nil
}

// build produces the next state. A panic escaping the engine is treated as
// an unusable engine.
func (s *Service) build(ctx context.Context) (next state) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("indexing pass panicked, running local-only", "panic", fmt.Sprint(r))
			next = s.localOnly(ctx, Outcome{})
		}
	}()
	handle := s.connect(ctx)
	if handle == nil {
		return s.localOnly(ctx, Outcome{})
	}
	return s.index(ctx, handle)
}

// connect initializes the engine. Failure is logged and reported as nil.
func (s *Service) connect(ctx context.Context) domain.Index {
	if s.engine == nil {
		s.log.Warn("no retrieval engine configured, running local-only")
		return nil
	}
	handle, err := initEngine(ctx, s.engine)
	if err != nil {
		s.log.Warn("engine initialization failed, running local-only", "error", err)
		return nil
	}
	return handle
}

// index inserts every source in order with bounded retries, then degrades
// if anything failed.
func (s *Service) index(ctx context.Context, handle domain.Index) state {
	out := Outcome{EngineReady: true}
	for _, src := range s.sources {
		retry := s.retry
		retry.OnFailure = func(attempt int, err error) {
			s.log.Warn("source index attempt failed",
				"source", src.Path, "attempt", attempt, "max_attempts", s.retry.MaxAttempts, "error", err)
		}
		attempts, err := resilience.Retry(ctx, retry, func(int) error {
			content, err := source.Read(src)
			if err != nil {
				return err
			}
			return insert(ctx, handle, content)
		})
		out.Attempts += attempts
		if err != nil {
			s.log.Warn("source indexing failed after retries", "source", src.Path, "attempts", attempts, "error", err)
			out.Failed = append(out.Failed, src)
			continue
		}
		s.log.Debug("source indexed", "source", src.Path, "attempts", attempts)
		out.Indexed = append(out.Indexed, src)
	}

	if len(out.Failed) == 0 {
		out.Phase = FullyIndexed
		return state{handle: handle, indexingComplete: true, outcome: out}
	}

	text, ok := fallback.Assemble(ctx, s.sources, s.log)
	if !ok {
		s.log.Warn("no source readable for fallback text")
		return s.localOnlyWith(out, "", false)
	}
	if err := insert(ctx, handle, domain.Content{Source: fallbackSourceName, Text: text}); err != nil {
		s.log.Warn("fallback text insertion failed, using local search", "error", err)
		return s.localOnlyWith(out, text, true)
	}
	out.Phase = FallbackIndexed
	out.FallbackTextAvailable = true
	return state{
		handle:           handle,
		fallbackText:     text,
		hasFallbackText:  true,
		indexingComplete: true,
		outcome:          out,
	}
}

// localOnly assembles fallback text without touching the engine.
func (s *Service) localOnly(ctx context.Context, out Outcome) state {
	text, ok := fallback.Assemble(ctx, s.sources, s.log)
	if ok {
		s.log.Info("loaded raw text for local fallback search", "bytes", len(text))
	}
	return s.localOnlyWith(out, text, ok)
}

// localOnlyWith drops the engine handle for answering purposes.
func (s *Service) localOnlyWith(out Outcome, text string, ok bool) state {
	out.Phase = LocalOnly
	out.EngineReady = false
	out.FallbackTextAvailable = ok
	return state{fallbackText: text, hasFallbackText: ok, outcome: out}
}

func initEngine(ctx context.Context, eng domain.Engine) (handle domain.Index, err error) {
	defer func() {
		if r := recover(); r != nil {
			handle, err = nil, fmt.Errorf("engine initialize panicked: %v", r)
		}
	}()
	return eng.Initialize(ctx)
}

func insert(ctx context.Context, handle domain.Index, content domain.Content) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine insert panicked: %v", r)
		}
	}()
	return handle.Insert(ctx, content)
}
