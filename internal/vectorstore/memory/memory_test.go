package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/domain"
)

func chunks(from, n, dim int) []domain.Chunk {
	out := make([]domain.Chunk, n)
	for i := range out {
		out[i] = domain.Chunk{ID: from + i, Text: "t", Embedding: make([]float64, dim)}
	}
	return out
}

func TestStore_Append(t *testing.T) {
	s := NewStore(0)
	assert.Equal(t, 0, s.Dimension())

	require.NoError(t, s.Append(chunks(0, 2, 3)))
	require.NoError(t, s.Append(chunks(2, 1, 3)))
	require.NoError(t, s.Append(nil))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.Dimension())
	for i, c := range s.Snapshot() {
		assert.Equal(t, i, c.ID)
	}
}

func TestStore_AppendRejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name    string
		batch   []domain.Chunk
		wantErr error
	}{
		{
			name:    "dimension mismatch in the middle",
			batch:   append(chunks(1, 1, 2), domain.Chunk{ID: 2, Embedding: make([]float64, 5)}),
			wantErr: domain.ErrDimensionMismatch,
		},
		{
			name:    "id gap",
			batch:   chunks(3, 1, 2),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "id reuse",
			batch:   chunks(0, 1, 2),
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(2)
			require.NoError(t, s.Append(chunks(0, 1, 2)))

			err := s.Append(tc.batch)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestStore_RejectsEmptyEmbeddings(t *testing.T) {
	s := NewStore(0)
	err := s.Append([]domain.Chunk{{ID: 0, Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, s.Dimension())
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore(1)
	require.NoError(t, s.Append(chunks(0, 2, 1)))

	snap := s.Snapshot()
	snap[0].Text = "changed"
	require.NoError(t, s.Append(chunks(2, 1, 1)))

	assert.Len(t, snap, 2)
	assert.Equal(t, "t", s.Snapshot()[0].Text)
}

func TestStore_ConcurrentReadersSeeWholeBatches(t *testing.T) {
	const batch = 10
	s := NewStore(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, s.Append(chunks(i*batch, batch, 1)))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				assert.Zero(t, len(s.Snapshot())%batch)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, s.Len())
}
