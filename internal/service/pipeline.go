// Package service wires the chunk, embed, rank and summarize stages into
// document sessions.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"docassist/internal/domain"
	"docassist/internal/formatter"
	"docassist/internal/ranker"
	"docassist/internal/textnorm"
)

// ChunkBuilder turns normalized text into chunk strings.
type ChunkBuilder interface {
	Chunk(text string) ([]string, error)
}

// Options configures a Pipeline.
type Options struct {
	Chunker        ChunkBuilder
	Embedder       domain.Embedder
	Ranker         *ranker.Ranker
	Summarizer     domain.Summarizer
	SummaryOptions domain.SummarizeOptions
	// Workers bounds concurrent embedding requests per ingest.
	Workers int
	Logger  *slog.Logger
}

// Pipeline holds the stateless stages. It is safe for concurrent use; all
// state lives in the chunk slices passed to it.
type Pipeline struct {
	chunker     ChunkBuilder
	embedder    domain.Embedder
	ranker      *ranker.Ranker
	summarizer  domain.Summarizer
	summaryOpts domain.SummarizeOptions
	workers     int
	log         *slog.Logger
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Chunker == nil || opts.Embedder == nil || opts.Summarizer == nil {
		return nil, errors.New("pipeline: chunker, embedder and summarizer are required")
	}
	if opts.Ranker == nil {
		opts.Ranker = ranker.New(ranker.DefaultTopK)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		chunker:     opts.Chunker,
		embedder:    opts.Embedder,
		ranker:      opts.Ranker,
		summarizer:  opts.Summarizer,
		summaryOpts: opts.SummaryOptions,
		workers:     opts.Workers,
		log:         opts.Logger,
	}, nil
}

// Dimension returns the embedding length every chunk must have.
func (p *Pipeline) Dimension() int { return p.embedder.Dimension() }

// BuildChunks normalizes and chunks text, then embeds every chunk. IDs
// start at firstID. Nothing is returned unless every chunk was embedded.
func (p *Pipeline) BuildChunks(ctx context.Context, text string, firstID int) ([]domain.Chunk, error) {
	texts, err := p.chunker.Chunk(textnorm.Normalize(text))
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{ID: firstID + i, Text: t, Embedding: vectors[i]}
	}
	return chunks, nil
}

func (p *Pipeline) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := p.embed(ctx, text)
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (p *Pipeline) embed(ctx context.Context, text string) ([]float64, error) {
	v, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewProviderError(p.embedder.Name(), err)
	}
	if len(v) != p.embedder.Dimension() {
		return nil, fmt.Errorf("%w: %s returned %d values, configured for %d",
			domain.ErrDimensionMismatch, p.embedder.Name(), len(v), p.embedder.Dimension())
	}
	return v, nil
}

// Suggest ranks chunks against the input and returns the top results
// without summarizing. No chunks yields no results.
func (p *Pipeline) Suggest(ctx context.Context, input string, chunks []domain.Chunk) ([]domain.RankedResult, error) {
	input = textnorm.Normalize(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	q, err := p.embed(ctx, input)
	if err != nil {
		return nil, err
	}
	return p.ranker.Rank(q, chunks)
}

// Query answers input with a bullet list summarizing the best matching
// chunks. No chunks yields an empty answer.
func (p *Pipeline) Query(ctx context.Context, input string, chunks []domain.Chunk) (string, error) {
	results, err := p.Suggest(ctx, input, chunks)
	if err != nil || len(results) == 0 {
		return "", err
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.ChunkText
	}
	p.log.Debug("summarizing ranked chunks", "chunks", len(results), "top_score", results[0].Score)
	return p.summarize(ctx, strings.Join(texts, " "))
}

// Notes summarizes all chunks in order as a bullet list.
func (p *Pipeline) Notes(ctx context.Context, chunks []domain.Chunk) (string, error) {
	if len(chunks) == 0 {
		return "", nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return p.summarize(ctx, strings.Join(texts, " "))
}

func (p *Pipeline) summarize(ctx context.Context, text string) (string, error) {
	summary, err := p.summarizer.Summarize(ctx, text, p.summaryOpts)
	if err != nil {
		return "", domain.NewProviderError(p.summarizer.Name(), err)
	}
	return formatter.Bullets(summary), nil
}
