package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docassist/internal/domain"
	"docassist/internal/extract"
)

// Registry keeps the open sessions of a process keyed by document ID.
// With a repository, sessions are persisted and can be reopened later.
type Registry struct {
	pipeline   *Pipeline
	extractors *extract.Registry
	repo       domain.DocumentRepository
	log        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry. repo may be nil for memory-only
// sessions; extractors defaults to plain text, PDF and DOCX.
func NewRegistry(p *Pipeline, extractors *extract.Registry, repo domain.DocumentRepository, logger *slog.Logger) *Registry {
	if extractors == nil {
		extractors = extract.Default()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		pipeline:   p,
		extractors: extractors,
		repo:       repo,
		log:        logger,
		sessions:   make(map[string]*Session),
	}
}

// Create starts an empty document for owner.
func (r *Registry) Create(ctx context.Context, ownerID string) (*Session, error) {
	id := uuid.NewString()
	if r.repo != nil {
		doc := domain.Document{ID: id, OwnerID: ownerID, CreatedAt: time.Now().UTC()}
		if err := r.repo.Create(ctx, doc); err != nil {
			return nil, &domain.OpError{Op: "create", DocumentID: id, Err: err}
		}
	}
	s := newSession(id, ownerID, r.pipeline, r.extractors, r.repo, r.log)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.log.Info("created document", "document_id", id, "owner_id", ownerID)
	return s, nil
}

// Open returns the session of a document, loading it from the repository
// when it is not open yet. The load runs without the registry lock; when
// two callers race, the first stored session wins.
func (r *Registry) Open(ctx context.Context, documentID string) (*Session, error) {
	if s, ok := r.lookup(documentID); ok {
		return s, nil
	}
	if r.repo == nil {
		return nil, &domain.OpError{Op: "open", DocumentID: documentID,
			Err: fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)}
	}
	doc, err := r.repo.Get(ctx, documentID)
	if err != nil {
		return nil, &domain.OpError{Op: "open", DocumentID: documentID, Err: err}
	}

	s := newSession(doc.ID, doc.OwnerID, r.pipeline, r.extractors, r.repo, r.log)
	if err := s.store.Append(doc.Chunks); err != nil {
		return nil, &domain.OpError{Op: "open", DocumentID: documentID, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[documentID]; ok {
		return existing, nil
	}
	r.sessions[documentID] = s
	r.log.Debug("opened document", "document_id", documentID, "chunks", len(doc.Chunks))
	return s, nil
}

func (r *Registry) lookup(documentID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[documentID]
	return s, ok
}

// List returns the stored documents of owner. An empty owner lists all.
func (r *Registry) List(ctx context.Context, ownerID string) ([]domain.DocumentInfo, error) {
	if r.repo == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		var out []domain.DocumentInfo
		for _, s := range r.sessions {
			if ownerID == "" || s.ownerID == ownerID {
				out = append(out, domain.DocumentInfo{ID: s.id, OwnerID: s.ownerID, ChunkCount: s.Len()})
			}
		}
		slices.SortFunc(out, func(a, b domain.DocumentInfo) int { return strings.Compare(a.ID, b.ID) })
		return out, nil
	}
	infos, err := r.repo.List(ctx, ownerID)
	if err != nil {
		return nil, &domain.OpError{Op: "list", Err: err}
	}
	return infos, nil
}

// Delete drops a document from the repository and then from memory. A
// failed repository delete keeps the session open.
func (r *Registry) Delete(ctx context.Context, documentID string) error {
	if r.repo != nil {
		if err := r.repo.Delete(ctx, documentID); err != nil {
			return &domain.OpError{Op: "delete", DocumentID: documentID, Err: err}
		}
	}

	r.mu.Lock()
	_, open := r.sessions[documentID]
	delete(r.sessions, documentID)
	r.mu.Unlock()

	if r.repo == nil && !open {
		return &domain.OpError{Op: "delete", DocumentID: documentID,
			Err: fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)}
	}
	r.log.Info("deleted document", "document_id", documentID)
	return nil
}
