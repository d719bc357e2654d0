// Package memory provides an in-memory brute-force vector store.
// It is the default backend for development and testing: O(n) per
// query, no persistence, identical result shape to the production
// backends.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a mutex-guarded in-memory vector store.
type Store struct {
	mu      sync.RWMutex
	dims    int
	records map[string]driven.VectorRecord
}

// New creates an empty store for vectors of the given dimension.
// A dimension of zero is inferred from the first upserted record.
func New(dims int) *Store {
	return &Store{
		dims:    dims,
		records: make(map[string]driven.VectorRecord),
	}
}

// Upsert stores records, replacing existing records by chunk ID.
func (s *Store) Upsert(_ context.Context, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if s.dims == 0 {
			s.dims = len(rec.Vector)
		}
		if len(rec.Vector) != s.dims {
			return fmt.Errorf("%w: chunk %s has dimension %d, store expects %d",
				domain.ErrDimensionMismatch, rec.ChunkID, len(rec.Vector), s.dims)
		}
		s.records[rec.ChunkID] = rec
	}
	return nil
}

// Search scans all records in the owner partition and ranks by cosine
// similarity.
func (s *Store) Search(_ context.Context, query []float32, q driven.VectorQuery) ([]driven.VectorHit, error) {
	if q.Owner.IsZero() {
		return nil, fmt.Errorf("%w: owner filter not built through identity normaliser", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dims != 0 && len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has dimension %d, store expects %d",
			domain.ErrDimensionMismatch, len(query), s.dims)
	}

	hits := make([]driven.VectorHit, 0, q.TopK)
	for _, rec := range s.records {
		if !q.Owner.Matches(rec.Owner) {
			continue
		}
		if q.Bucket != nil && rec.Bucket != *q.Bucket {
			continue
		}

		score := cosine(query, rec.Vector)
		if score < q.Threshold {
			continue
		}

		hits = append(hits, driven.VectorHit{
			ChunkID:    rec.ChunkID,
			DocumentID: rec.DocumentID,
			Score:      score,
			Bucket:     rec.Bucket,
			Content:    rec.Content,
		})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ChunkID < hits[b].ChunkID
	})

	if q.TopK > 0 && len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	return hits, nil
}

// Delete removes the given chunk IDs. Unknown IDs are ignored.
func (s *Store) Delete(_ context.Context, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range chunkIDs {
		delete(s.records, id)
	}
	return nil
}

// Dimensions returns the vector dimension, zero until known.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// cosine computes the cosine similarity of two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
