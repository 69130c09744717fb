package engine

import (
	"math"
	"sort"

	"raganswer/internal/domain"
	"raganswer/internal/textutil"
)

// lexicalRank scores chunks by the Ochiai coefficient of their token set
// against the question's and keeps the positive-scoring topK.
func lexicalRank(chunks []domain.Chunk, question string, topK int) []domain.SearchResult {
	qset := textutil.TokenSet(question)
	for t := range qset {
		if textutil.IsStopword(t) {
			delete(qset, t)
		}
	}
	scored := make([]domain.SearchResult, 0, len(chunks))
	for _, ch := range chunks {
		if s := ochiai(qset, ch.Text); s > 0 {
			scored = append(scored, domain.SearchResult{Chunk: ch, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored
}

// ochiai returns |A∩B| / sqrt(|A||B|).
func ochiai(qset map[string]struct{}, text string) float64 {
	seen := textutil.TokenSet(text)
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
