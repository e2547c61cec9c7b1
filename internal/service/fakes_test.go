package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"docassist/internal/chunker"
	"docassist/internal/domain"
	"docassist/internal/ranker"
	"docassist/internal/segmenter"
)

var errBackend = errors.New("backend unavailable")

// fakeEmbedder returns fixed vectors for known texts and fallback for
// anything else. failOn makes the n-th call (1-based) fail.
type fakeEmbedder struct {
	dim      int
	vectors  map[string][]float64
	fallback []float64
	failOn   int32
	calls    atomic.Int32
}

func (e *fakeEmbedder) Name() string   { return "fake" }
func (e *fakeEmbedder) Dimension() int { return e.dim }

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	n := e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.failOn > 0 && n == e.failOn {
		return nil, errBackend
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	if e.fallback != nil {
		return e.fallback, nil
	}
	v := make([]float64, e.dim)
	v[0] = 1
	return v, nil
}

// echoSummarizer returns its input and records it.
type echoSummarizer struct {
	mu     sync.Mutex
	inputs []string
	err    error
}

func (s *echoSummarizer) Name() string { return "echo" }

func (s *echoSummarizer) Summarize(_ context.Context, text string, _ domain.SummarizeOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, text)
	if s.err != nil {
		return "", s.err
	}
	return text, nil
}

func (s *echoSummarizer) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return ""
	}
	return s.inputs[len(s.inputs)-1]
}

// memRepo is an in-memory domain.DocumentRepository.
type memRepo struct {
	mu      sync.Mutex
	docs    map[string]*domain.Document
	failure error
}

func newMemRepo() *memRepo { return &memRepo{docs: map[string]*domain.Document{}} }

func (r *memRepo) Create(_ context.Context, doc domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = &doc
	return nil
}

func (r *memRepo) AppendFile(_ context.Context, id, filename string, chunks []domain.Chunk) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return 0, r.failure
	}
	doc, ok := r.docs[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	first := len(doc.Chunks)
	doc.SourceFilenames = append(doc.SourceFilenames, filename)
	for i, c := range chunks {
		c.ID = first + i
		doc.Chunks = append(doc.Chunks, c)
	}
	return first, nil
}

func (r *memRepo) Get(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, owner string) ([]domain.DocumentInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DocumentInfo
	for _, d := range r.docs {
		if owner == "" || d.OwnerID == owner {
			out = append(out, domain.DocumentInfo{ID: d.ID, OwnerID: d.OwnerID, ChunkCount: len(d.Chunks)})
		}
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	if _, ok := r.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

// slowRepo blocks Get until release is closed and reports each call on
// entered.
type slowRepo struct {
	*memRepo
	entered chan struct{}
	release chan struct{}
}

func (r *slowRepo) Get(ctx context.Context, id string) (*domain.Document, error) {
	select {
	case r.entered <- struct{}{}:
	default:
	}
	<-r.release
	return r.memRepo.Get(ctx, id)
}

// gatedEmbedder holds every Embed call until gate is closed and reports
// each call on entered.
type gatedEmbedder struct {
	entered chan struct{}
	gate    chan struct{}
	err     error
}

func newGatedEmbedder(err error) *gatedEmbedder {
	return &gatedEmbedder{entered: make(chan struct{}, 1), gate: make(chan struct{}), err: err}
}

func (e *gatedEmbedder) Name() string   { return "gated" }
func (e *gatedEmbedder) Dimension() int { return 2 }

func (e *gatedEmbedder) Embed(ctx context.Context, _ string) ([]float64, error) {
	select {
	case e.entered <- struct{}{}:
	default:
	}
	select {
	case <-e.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return []float64{1, 0}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPipeline builds a pipeline that puts every sentence in its own
// chunk.
func newTestPipeline(t *testing.T, emb domain.Embedder, sum domain.Summarizer) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Options{
		Chunker:    chunker.NewBuilder(segmenter.NewRegex(), 1),
		Embedder:   emb,
		Ranker:     ranker.New(3),
		Summarizer: sum,
		Workers:    4,
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return p
}

func sentences(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "Sentence " + strings.Repeat("x", i+1) + "."
	}
	return strings.Join(parts, " ")
}
