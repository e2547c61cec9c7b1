// Package ranker scores chunks against a query embedding by cosine
// similarity and selects the best matches.
package ranker

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"docassist/internal/domain"
)

// DefaultTopK is the number of chunks selected per query.
const DefaultTopK = 3

// Cosine returns dot(a, b) / (|a| * |b|). A zero vector on either side
// scores 0. Vectors must have equal length.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Ranker orders chunks by descending similarity to a query.
type Ranker struct {
	topK int
}

func New(topK int) *Ranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Ranker{topK: topK}
}

// TopK returns the configured selection size.
func (r *Ranker) TopK() int { return r.topK }

// Rank scores every chunk and returns the best topK by descending score.
// Equal scores keep chunk order. Fewer than topK chunks returns all of
// them. Any chunk whose embedding length differs from the query's aborts
// ranking with domain.ErrDimensionMismatch.
func (r *Ranker) Rank(query []float64, chunks []domain.Chunk) ([]domain.RankedResult, error) {
	results := make([]domain.RankedResult, 0, len(chunks))
	for _, ch := range chunks {
		if len(ch.Embedding) != len(query) {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, query has %d",
				domain.ErrDimensionMismatch, ch.ID, len(ch.Embedding), len(query))
		}
		results = append(results, domain.RankedResult{
			ChunkID:   ch.ID,
			ChunkText: ch.Text,
			Score:     Cosine(query, ch.Embedding),
		})
	}
	slices.SortStableFunc(results, func(a, b domain.RankedResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > r.topK {
		results = results[:r.topK]
	}
	return results, nil
}
