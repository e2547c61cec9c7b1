package summarizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/domain"
)

const sample = "Go is fast. Go is simple. Cats sleep."

func TestFrequencySummarizer(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts domain.SummarizeOptions
		want string
	}{
		{
			name: "stops once min length is reached",
			text: sample,
			opts: domain.SummarizeOptions{MinLength: 1, MaxLength: 50},
			want: "Go is fast.",
		},
		{
			name: "keeps document order",
			text: sample,
			opts: domain.SummarizeOptions{MinLength: 100, MaxLength: 300},
			want: sample,
		},
		{
			name: "skips sentences that would exceed max length",
			text: sample,
			opts: domain.SummarizeOptions{MinLength: 5, MaxLength: 5},
			want: "Go is fast. Cats sleep.",
		},
		{
			name: "truncates input",
			text: sample,
			opts: domain.SummarizeOptions{MinLength: 100, MaxLength: 300, MaxInputTokens: 3},
			want: "Go is fast.",
		},
		{
			name: "cuts an oversized first sentence",
			text: "one two three four five six.",
			opts: domain.SummarizeOptions{MinLength: 1, MaxLength: 3},
			want: "one two three",
		},
		{
			name: "empty input",
			text: "   ",
			opts: DefaultOptions(),
			want: "",
		},
	}

	s := NewFrequencySummarizer()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Summarize(context.Background(), tc.text, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFrequencySummarizer_Deterministic(t *testing.T) {
	s := NewFrequencySummarizer()
	opts := domain.SummarizeOptions{MinLength: 4, MaxLength: 10}

	first, err := s.Summarize(context.Background(), sample, opts)
	require.NoError(t, err)
	for range 5 {
		again, err := s.Summarize(context.Background(), sample, opts)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "frequency", s.Name())
}

func TestFrequencySummarizer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFrequencySummarizer().Summarize(ctx, sample, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
