package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical", a: []float64{0.3, 0.4, 0.5}, b: []float64{0.3, 0.4, 0.5}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite", a: []float64{1, 2}, b: []float64{-1, -2}, want: -1},
		{name: "scaled", a: []float64{1, 1}, b: []float64{5, 5}, want: 1},
		{name: "zero query", a: []float64{0, 0}, b: []float64{1, 0}, want: 0},
		{name: "zero chunk", a: []float64{1, 0}, b: []float64{0, 0}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Cosine(tc.a, tc.b), 1e-9)
		})
	}
}

// chunksWithScores builds unit chunks whose cosine against query (1, 0)
// equals the given scores.
func chunksWithScores(scores ...float64) []domain.Chunk {
	out := make([]domain.Chunk, len(scores))
	for i, s := range scores {
		out[i] = domain.Chunk{
			ID:        i,
			Text:      string(rune('a' + i)),
			Embedding: []float64{s, sqrt1m(s)},
		}
	}
	return out
}

func sqrt1m(s float64) float64 {
	return math.Sqrt(math.Max(0, 1-s*s))
}

func TestRanker_TieBreakByInsertionOrder(t *testing.T) {
	chunks := chunksWithScores(0.9, 0.5, 0.9, 0.3)

	res, err := New(3).Rank([]float64{1, 0}, chunks)
	require.NoError(t, err)

	require.Len(t, res, 3)
	assert.Equal(t, []int{0, 2, 1}, []int{res[0].ChunkID, res[1].ChunkID, res[2].ChunkID})
	assert.InDelta(t, 0.9, res[0].Score, 1e-9)
	assert.InDelta(t, 0.9, res[1].Score, 1e-9)
	assert.InDelta(t, 0.5, res[2].Score, 1e-9)
	assert.Equal(t, "a", res[0].ChunkText)
}

func TestRanker_Deterministic(t *testing.T) {
	chunks := chunksWithScores(0.2, 0.2, 0.2, 0.2, 0.2)
	r := New(3)

	first, err := r.Rank([]float64{1, 0}, chunks)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Rank([]float64{1, 0}, chunks)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 0, first[0].ChunkID)
	assert.Equal(t, 2, first[2].ChunkID)
}

func TestRanker_FewerThanK(t *testing.T) {
	res, err := New(3).Rank([]float64{1, 0}, chunksWithScores(0.1, 0.7))
	require.NoError(t, err)

	require.Len(t, res, 2)
	assert.Equal(t, 1, res[0].ChunkID)
	assert.Equal(t, 0, res[1].ChunkID)
}

func TestRanker_Empty(t *testing.T) {
	res, err := New(3).Rank([]float64{1, 0}, nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestRanker_ZeroQuery(t *testing.T) {
	res, err := New(3).Rank([]float64{0, 0}, chunksWithScores(0.9, 0.1))
	require.NoError(t, err)

	require.Len(t, res, 2)
	for _, r := range res {
		assert.Zero(t, r.Score)
	}
	assert.Equal(t, 0, res[0].ChunkID)
}

func TestRanker_DimensionMismatch(t *testing.T) {
	chunks := []domain.Chunk{{ID: 0, Text: "x", Embedding: []float64{1, 0, 0}}}

	_, err := New(3).Rank([]float64{1, 0}, chunks)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestNew_DefaultTopK(t *testing.T) {
	assert.Equal(t, DefaultTopK, New(0).TopK())
	assert.Equal(t, 5, New(5).TopK())
}
