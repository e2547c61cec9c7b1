package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/domain"
	"docassist/internal/segmenter"
)

type fakeSegmenter struct {
	sentences []string
	err       error
}

func (f *fakeSegmenter) Segment(string) ([]string, error) { return f.sentences, f.err }

func TestBuilder_Build(t *testing.T) {
	var cases = []struct {
		sentences []string
		max       int
		output    []string
	}{
		{sentences: []string{"Hello.", "World today."}, max: 10, output: []string{"Hello.", "World today."}},
		{sentences: []string{"A b.", "C d."}, max: 10, output: []string{"A b. C d."}},
		{sentences: []string{"Short.", "This sentence is far too long.", "Tail."}, max: 10,
			output: []string{"Short.", "This sentence is far too long.", "Tail."}},
		{sentences: []string{"This sentence is far too long."}, max: 5, output: []string{"This sentence is far too long."}},
		{sentences: []string{"ab.", "cd.", "ef."}, max: 7, output: []string{"ab. cd.", "ef."}},
		{sentences: []string{" ", ""}, max: 10, output: nil},
		{sentences: nil, max: 10, output: nil},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			b := NewBuilder(&fakeSegmenter{}, c.max)
			assert.Equal(t, c.output, b.Build(c.sentences))
		})
	}
}

func TestBuilder_ReconstructsSentences(t *testing.T) {
	sentences := []string{
		"Go is expressive, concise, clean, and efficient.",
		"Its concurrency mechanisms make it easy to write programs.",
		"It compiles quickly to machine code.",
		"Go is a fast, statically typed, compiled language.",
		"Ok.",
	}

	for _, max := range []int{1, 20, 60, 120, 512} {
		t.Run(fmt.Sprintf("max_%d", max), func(t *testing.T) {
			chunks := NewBuilder(&fakeSegmenter{}, max).Build(sentences)
			require.NotEmpty(t, chunks)
			for _, ch := range chunks {
				assert.NotEmpty(t, ch)
			}
			assert.Equal(t, strings.Join(sentences, " "), strings.Join(chunks, " "))
		})
	}
}

func TestBuilder_Chunk(t *testing.T) {
	b := NewBuilder(segmenter.NewRegex(), 30)

	chunks, err := b.Chunk("First sentence here. Second one. Third sentence is longer than most.")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"First sentence here.",
		"Second one.",
		"Third sentence is longer than most.",
	}, chunks)
}

func TestBuilder_ChunkEmpty(t *testing.T) {
	seg := &fakeSegmenter{err: errors.New("must not be called")}
	chunks, err := NewBuilder(seg, 0).Chunk("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestBuilder_ChunkSegmenterError(t *testing.T) {
	seg := &fakeSegmenter{err: domain.ErrSegmentation}
	_, err := NewBuilder(seg, 0).Chunk("text")
	assert.ErrorIs(t, err, domain.ErrSegmentation)
}

func TestNewBuilder_Default(t *testing.T) {
	assert.Equal(t, DefaultMaxChunkSize, NewBuilder(&fakeSegmenter{}, 0).MaxChunkSize())
	assert.Equal(t, 64, NewBuilder(&fakeSegmenter{}, 64).MaxChunkSize())
}
