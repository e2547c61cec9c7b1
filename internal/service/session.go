package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"docassist/internal/domain"
	"docassist/internal/extract"
	"docassist/internal/textnorm"
	"docassist/internal/vectorstore/memory"
)

// State is the lifecycle position of a session.
type State int

const (
	StateEmpty State = iota
	StateIngesting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateIngesting:
		return "INGESTING"
	case StateReady:
		return "READY"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// File is one uploaded file.
type File struct {
	Name    string
	Content []byte
}

// Session owns the chunks of one document. Ingestion is serialized per
// session; queries read a snapshot and run in parallel with everything.
type Session struct {
	id         string
	ownerID    string
	pipeline   *Pipeline
	extractors *extract.Registry
	store      *memory.Store
	repo       domain.DocumentRepository
	log        *slog.Logger

	ingestMu  sync.Mutex
	ingesting atomic.Bool
}

func newSession(id, ownerID string, p *Pipeline, extractors *extract.Registry, repo domain.DocumentRepository, log *slog.Logger) *Session {
	return &Session{
		id:         id,
		ownerID:    ownerID,
		pipeline:   p,
		extractors: extractors,
		store:      memory.NewStore(p.Dimension()),
		repo:       repo,
		log:        log.With("document_id", id),
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OwnerID() string { return s.ownerID }

// Len returns the number of visible chunks.
func (s *Session) Len() int { return s.store.Len() }

// Chunks returns a snapshot of the visible chunks.
func (s *Session) Chunks() []domain.Chunk { return s.store.Snapshot() }

func (s *Session) State() State {
	if s.ingesting.Load() {
		return StateIngesting
	}
	if s.store.Len() > 0 {
		return StateReady
	}
	return StateEmpty
}

// Ingest decodes one file and appends its chunks. The file contributes all
// of its chunks or none. A file without extractable text yields no chunks
// and no error.
func (s *Session) Ingest(ctx context.Context, filename string, content []byte) ([]domain.Chunk, error) {
	if err := s.extractors.Supports(filename); err != nil {
		return nil, s.opError("ingest", filename, err)
	}
	return s.ingest(ctx, filename, content)
}

// IngestFiles ingests files in order. Every name is checked before any
// file is ingested. Files before a failing one stay ingested.
func (s *Session) IngestFiles(ctx context.Context, files []File) ([]domain.Chunk, error) {
	for _, f := range files {
		if err := s.extractors.Supports(f.Name); err != nil {
			return nil, s.opError("ingest", f.Name, err)
		}
	}
	var all []domain.Chunk
	for _, f := range files {
		chunks, err := s.ingest(ctx, f.Name, f.Content)
		if err != nil {
			return all, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

func (s *Session) ingest(ctx context.Context, filename string, content []byte) ([]domain.Chunk, error) {
	start := time.Now()
	text, err := s.extractors.Extract(filename, content)
	if err != nil {
		return nil, s.opError("ingest", filename, err)
	}
	text = textnorm.Normalize(text)
	if text == "" {
		s.log.Warn("no text extracted", "file", filename)
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	s.ingesting.Store(true)
	defer s.ingesting.Store(false)

	chunks, err := s.pipeline.BuildChunks(ctx, text, s.store.Len())
	if err != nil {
		return nil, s.opError("ingest", filename, err)
	}
	if dim := s.store.Dimension(); dim != 0 && len(chunks) > 0 && len(chunks[0].Embedding) != dim {
		return nil, s.opError("ingest", filename, fmt.Errorf("%w: store holds %d, embedder returned %d",
			domain.ErrDimensionMismatch, dim, len(chunks[0].Embedding)))
	}
	if s.repo != nil {
		first, err := s.repo.AppendFile(ctx, s.id, filename, chunks)
		if err != nil {
			return nil, s.opError("ingest", filename, err)
		}
		for i := range chunks {
			chunks[i].ID = first + i
		}
		if first != s.store.Len() {
			// another writer appended to this document since it was opened
			if err := s.catchUp(ctx); err != nil {
				return nil, s.opError("ingest", filename, err)
			}
			s.log.Info("ingested file", "file", filename, "chunks", len(chunks),
				"total_chunks", s.store.Len(), "reloaded", true, "duration", time.Since(start))
			return chunks, nil
		}
	}
	if err := s.store.Append(chunks); err != nil {
		return nil, s.opError("ingest", filename, err)
	}

	s.log.Info("ingested file", "file", filename, "chunks", len(chunks),
		"total_chunks", s.store.Len(), "duration", time.Since(start))
	return chunks, nil
}

// catchUp appends the repository's chunks this session has not seen yet.
func (s *Session) catchUp(ctx context.Context) error {
	doc, err := s.repo.Get(ctx, s.id)
	if err != nil {
		return fmt.Errorf("reloading document: %w", err)
	}
	have := s.store.Len()
	var missing []domain.Chunk
	for _, c := range doc.Chunks {
		if c.ID >= have {
			missing = append(missing, c)
		}
	}
	return s.store.Append(missing)
}

// Query answers input from the chunks visible now. A session without
// chunks answers with an empty string.
func (s *Session) Query(ctx context.Context, input string) (string, error) {
	start := time.Now()
	out, err := s.pipeline.Query(ctx, input, s.store.Snapshot())
	if err != nil {
		return "", s.opError("query", "", err)
	}
	s.log.Debug("answered query", "duration", time.Since(start))
	return out, nil
}

// Suggest returns the best matching chunks for input.
func (s *Session) Suggest(ctx context.Context, input string) ([]domain.RankedResult, error) {
	out, err := s.pipeline.Suggest(ctx, input, s.store.Snapshot())
	if err != nil {
		return nil, s.opError("suggest", "", err)
	}
	return out, nil
}

// Notes summarizes the whole document as a bullet list.
func (s *Session) Notes(ctx context.Context) (string, error) {
	out, err := s.pipeline.Notes(ctx, s.store.Snapshot())
	if err != nil {
		return "", s.opError("notes", "", err)
	}
	return out, nil
}

func (s *Session) opError(op, file string, err error) error {
	return &domain.OpError{Op: op, DocumentID: s.id, File: file, Err: err}
}
