// Package memory provides an in-memory evidence store, used for tests
// and ephemeral sessions where no durable storage is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
)

// Ensure EvidenceStore implements the interface.
var _ driven.EvidenceStore = (*EvidenceStore)(nil)

// EvidenceStore is an in-memory implementation of driven.EvidenceStore.
type EvidenceStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewEvidenceStore creates a new in-memory evidence store.
func NewEvidenceStore() *EvidenceStore {
	return &EvidenceStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *EvidenceStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document requires an ID", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores the chunks of one document.
func (s *EvidenceStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Position < stored[j].Position
	})
	s.chunks[docID] = stored
	return nil
}

// GetDocument retrieves a document by ID within an owner partition.
// Documents in other partitions report domain.ErrNotFound.
func (s *EvidenceStore) GetDocument(_ context.Context, id string, owner domain.OwnerFilter) (*domain.Document, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner filter required", domain.ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok || !owner.Matches(doc.Owner) {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *EvidenceStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunks retrieves all chunks for a document in position order.
func (s *EvidenceStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	result := make([]domain.Chunk, len(chunks))
	copy(result, chunks)
	return result, nil
}

// ListDocuments returns all documents in one owner partition.
func (s *EvidenceStore) ListDocuments(_ context.Context, owner domain.OwnerFilter) ([]domain.Document, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner filter required", domain.ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if owner.Matches(doc.Owner) {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ListOwners returns every distinct stored owner value, sorted.
func (s *EvidenceStore) ListOwners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, doc := range s.documents {
		seen[doc.Owner] = struct{}{}
	}
	owners := make([]string, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

// DeleteDocument removes a document and its chunks, returning the
// deleted chunk IDs.
func (s *EvidenceStore) DeleteDocument(_ context.Context, id string, owner domain.OwnerFilter) ([]string, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner filter required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || !owner.Matches(doc.Owner) {
		return nil, domain.ErrNotFound
	}

	chunkIDs := make([]string, 0, len(s.chunks[id]))
	for _, chunk := range s.chunks[id] {
		chunkIDs = append(chunkIDs, chunk.ID)
	}

	delete(s.documents, id)
	delete(s.chunks, id)
	return chunkIDs, nil
}

// Close releases resources.
func (s *EvidenceStore) Close() error {
	return nil
}
