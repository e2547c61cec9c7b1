package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docassist/internal/domain"
)

// DefaultMaxChunkSize is the default soft chunk bound, in characters.
const DefaultMaxChunkSize = 512

// Builder greedily packs whole sentences into chunks of at most
// maxChunkSize characters. A single sentence longer than the bound becomes
// its own oversized chunk.
type Builder struct {
	maxChunkSize int
	segmenter    domain.Segmenter
}

func NewBuilder(segmenter domain.Segmenter, maxChunkSize int) *Builder {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Builder{maxChunkSize: maxChunkSize, segmenter: segmenter}
}

// MaxChunkSize returns the configured soft bound.
func (b *Builder) MaxChunkSize() int { return b.maxChunkSize }

// Chunk segments normalized text and packs the sentences. Empty text
// yields zero chunks.
func (b *Builder) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	sentences, err := b.segmenter.Segment(text)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	return b.Build(sentences), nil
}

// Build packs sentences in order. Sentences are never split; chunk text is
// the member sentences joined by a single space.
func (b *Builder) Build(sentences []string) []string {
	var chunks []string
	var acc []string
	accLen := 0
	flush := func() {
		if len(acc) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(acc, " "))
		acc = acc[:0]
		accLen = 0
	}
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n := utf8.RuneCountInString(s)
		if len(acc) > 0 && accLen+n > b.maxChunkSize {
			flush()
		}
		if len(acc) > 0 {
			accLen++ // joining space
		}
		acc = append(acc, s)
		accLen += n
	}
	flush()
	return chunks
}
