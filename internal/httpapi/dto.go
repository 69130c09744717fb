package httpapi

import (
	"fmt"
	"strings"

	"raganswer/internal/engine"
	"raganswer/internal/service"
	"raganswer/internal/source"
)

const maxTopK = 100

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question     string `json:"question"`
	Mode         string `json:"mode"`
	TopK         int    `json:"top_k"`
	ForceReindex bool   `json:"force_reindex"`
}

func defaultQueryRequest() QueryRequest {
	return QueryRequest{Mode: "mix", TopK: 5}
}

func (r QueryRequest) validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("question must not be empty")
	}
	if !engine.ValidMode(r.Mode) {
		return fmt.Errorf("mode must be one of %s", strings.Join(engine.Modes, ", "))
	}
	if r.TopK < 1 || r.TopK > maxTopK {
		return fmt.Errorf("top_k must be between 1 and %d", maxTopK)
	}
	return nil
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Mode     string `json:"mode"`
	TopK     int    `json:"top_k"`
	Status   string `json:"status"`
	Tier     string `json:"tier"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status           string   `json:"status"`
	EngineReady      bool     `json:"engine_ready"`
	IndexingComplete bool     `json:"indexing_complete"`
	Sources          []string `json:"sources"`
	SourceCount      int      `json:"source_count"`
	HasFallbackText  bool     `json:"has_fallback_text"`
	State            string   `json:"state"`
}

func newHealthResponse(st service.Status) HealthResponse {
	return HealthResponse{
		Status:           "healthy",
		EngineReady:      st.EngineReady,
		IndexingComplete: st.IndexingComplete,
		Sources:          st.Sources,
		SourceCount:      st.SourceCount,
		HasFallbackText:  st.HasFallbackText,
		State:            st.Phase.String(),
	}
}

// OutcomeResponse describes an indexing pass.
type OutcomeResponse struct {
	Phase                 string   `json:"phase"`
	EngineReady           bool     `json:"engine_ready"`
	Indexed               []string `json:"indexed"`
	Failed                []string `json:"failed"`
	Attempts              int      `json:"attempts"`
	FallbackTextAvailable bool     `json:"fallback_text_available"`
}

func newOutcomeResponse(o service.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Phase:                 o.Phase.String(),
		EngineReady:           o.EngineReady,
		Indexed:               source.Paths(o.Indexed),
		Failed:                source.Paths(o.Failed),
		Attempts:              o.Attempts,
		FallbackTextAvailable: o.FallbackTextAvailable,
	}
}

// ErrorResponse carries a client-facing failure.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
