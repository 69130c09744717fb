// Package service owns the process-wide answering state: it indexes the
// configured sources into the retrieval engine, degrades to raw fallback
// text when the engine or a source fails, and resolves questions through
// engine query, then lexical search.
package service

import (
	"slices"
	"sync"

	"raganswer/internal/domain"
	"raganswer/internal/logger"
	"raganswer/internal/resilience"
	"raganswer/internal/source"
)

// Phase is the result of the most recent indexing pass.
type Phase int

const (
	// Idle means no pass has completed yet.
	Idle Phase = iota
	// FullyIndexed means every source was inserted into the engine.
	FullyIndexed
	// FallbackIndexed means some source failed and the assembled fallback
	// text was inserted into the engine instead.
	FallbackIndexed
	// LocalOnly means the engine is unusable and answers come from lexical
	// search over the fallback text.
	LocalOnly
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case FullyIndexed:
		return "fully_indexed"
	case FallbackIndexed:
		return "fallback_indexed"
	case LocalOnly:
		return "local_only"
	default:
		return "unknown"
	}
}

// Outcome summarizes one indexing pass. Each pass replaces the previous
// outcome entirely.
type Outcome struct {
	Phase                 Phase
	EngineReady           bool
	Indexed               []source.DataSource
	Failed                []source.DataSource
	Attempts              int
	FallbackTextAvailable bool
}

// Config configures a Service.
type Config struct {
	Sources []source.DataSource
	// Engine may be nil, in which case the service runs local-only.
	Engine domain.Engine
	// Retry bounds the per-source insert attempts. MaxAttempts defaults to 3.
	Retry  resilience.RetryConfig
	Logger logger.Logger
}

// state is replaced as a whole at the end of each pass so readers never
// observe a half-updated value.
type state struct {
	handle           domain.Index
	fallbackText     string
	hasFallbackText  bool
	indexingComplete bool
	outcome          Outcome
}

// pass is an in-flight Initialize that later callers wait on.
type pass struct {
	done    chan struct{}
	outcome Outcome
	err     error
}

// Service is the indexing orchestrator and answer resolver over one fixed
// set of sources.
type Service struct {
	engine  domain.Engine
	sources []source.DataSource
	retry   resilience.RetryConfig
	log     logger.Logger

	mu      sync.RWMutex
	state   state
	running *pass
}

// New builds a Service in the Idle phase. Nothing is read until Initialize.
func New(cfg Config) *Service {
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 3
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		engine:  cfg.Engine,
		sources: slices.Clone(cfg.Sources),
		retry:   retry,
		log:     log,
	}
}

// Sources returns the configured sources in order.
func (s *Service) Sources() []source.DataSource {
	return slices.Clone(s.sources)
}

// Source looks up a configured source by base file name.
func (s *Service) Source(name string) (source.DataSource, bool) {
	for _, src := range s.sources {
		if src.Name() == name {
			return src, true
		}
	}
	return source.DataSource{}, false
}

func (s *Service) snapshot() state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
