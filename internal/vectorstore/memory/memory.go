// Package memory holds a session's chunks in process memory.
package memory

import (
	"fmt"
	"sync"

	"docassist/internal/domain"
)

// Store is an append-only in-memory chunk sequence. A batch is appended
// atomically: readers see all of it or none of it.
type Store struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
}

// NewStore creates a store for vectors of the given dimension. A zero
// dimension is fixed by the first non-empty batch.
func NewStore(dimension int) *Store { return &Store{dimension: dimension} }

// Append adds a batch. Chunk IDs must continue the existing sequence and
// every embedding must match the store dimension.
func (s *Store) Append(chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	if dim == 0 {
		dim = len(chunks[0].Embedding)
	}
	next := len(s.chunks)
	for i, c := range chunks {
		if c.ID != next+i {
			return fmt.Errorf("%w: chunk id %d, expected %d", domain.ErrInvalidInput, c.ID, next+i)
		}
		if len(c.Embedding) != dim || dim == 0 {
			return fmt.Errorf("%w: chunk %d has %d values, store has %d",
				domain.ErrDimensionMismatch, c.ID, len(c.Embedding), dim)
		}
	}
	s.dimension = dim
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Snapshot returns the chunks visible at the time of the call. The slice
// is a copy; chunk contents are shared and must not be modified.
func (s *Store) Snapshot() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Dimension returns the embedding length, or 0 while unknown.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}
