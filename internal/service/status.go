package service

import "raganswer/internal/source"

// Status is a read-only view of the service state for health reporting.
type Status struct {
	EngineReady      bool
	IndexingComplete bool
	Sources          []string
	SourceCount      int
	HasFallbackText  bool
	Phase            Phase
}

// Status reports the committed state. It never blocks on an indexing pass.
func (s *Service) Status() Status {
	st := s.snapshot()
	return Status{
		EngineReady:      st.handle != nil,
		IndexingComplete: st.indexingComplete,
		Sources:          source.Paths(s.sources),
		SourceCount:      len(s.sources),
		HasFallbackText:  st.hasFallbackText,
		Phase:            st.outcome.Phase,
	}
}
