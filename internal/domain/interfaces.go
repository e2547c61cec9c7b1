package domain

import (
	"context"
	"time"
)

// Chunk is one piece of an ingested document. Chunks are immutable once
// created; IDs are assigned in creation order and never reused within a
// document.
type Chunk struct {
	ID        int
	Text      string
	Embedding []float64
}

// Document is the aggregate that owns an ordered sequence of chunks built
// from one or more source files.
type Document struct {
	ID              string
	OwnerID         string
	SourceFilenames []string
	Chunks          []Chunk
	CreatedAt       time.Time
}

// DocumentInfo is the listing view of a stored document.
type DocumentInfo struct {
	ID              string
	OwnerID         string
	SourceFilenames []string
	ChunkCount      int
	CreatedAt       time.Time
}

// Query is a user's input together with its embedding. Never persisted.
type Query struct {
	Text      string
	Embedding []float64
}

// RankedResult is a chunk text scored against a query.
type RankedResult struct {
	ChunkID   int     `json:"chunk_id"`
	ChunkText string  `json:"chunk_text"`
	Score     float64 `json:"score"`
}

// Segmenter splits normalized text into an ordered sequence of sentences.
type Segmenter interface {
	Segment(text string) ([]string, error)
}

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// SummarizeOptions carries the length and decoding tunables handed to a
// Summarizer. Length units are whatever the backend uses for its own
// sequence-length control.
type SummarizeOptions struct {
	MinLength      int
	MaxLength      int
	MaxInputTokens int
	NumBeams       int
	LengthPenalty  float64
	EarlyStopping  bool
}

// Summarizer produces an abstractive summary of the provided text.
// Implementations truncate overly long input instead of failing.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, text string, opts SummarizeOptions) (string, error)
}

// Extractor turns a raw file into plain text. Undecodable content yields
// an empty string rather than an error.
type Extractor interface {
	Kind() FileKind
	Extract(content []byte) (string, error)
}

// ChunkStore is the shared, append-only chunk sequence of one session.
type ChunkStore interface {
	Append(chunks []Chunk) error
	Snapshot() []Chunk
	Len() int
	Dimension() int
}

// DocumentRepository persists documents keyed by document ID.
// AppendFile numbers the chunks after the document's last stored chunk and
// returns the first id it assigned.
type DocumentRepository interface {
	Create(ctx context.Context, doc Document) error
	AppendFile(ctx context.Context, documentID, filename string, chunks []Chunk) (int, error)
	Get(ctx context.Context, documentID string) (*Document, error)
	List(ctx context.Context, ownerID string) ([]DocumentInfo, error)
	Delete(ctx context.Context, documentID string) error
}
