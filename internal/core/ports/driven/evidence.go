package driven

import (
	"context"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// EvidenceStore is the durable record of ingested documents and their
// chunks, partitioned by owner. Documents are immutable once stored;
// re-ingestion creates a new version and purge is the only deletion.
type EvidenceStore interface {
	// SaveDocument stores a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores the chunks of one document, embeddings included.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID, restricted to the owner
	// partition. Returns domain.ErrNotFound for other partitions so a
	// caller cannot probe for foreign document IDs.
	GetDocument(ctx context.Context, id string, owner domain.OwnerFilter) (*domain.Document, error)

	// GetChunk retrieves a single chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks of a document in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns all documents in one owner partition.
	ListDocuments(ctx context.Context, owner domain.OwnerFilter) ([]domain.Document, error)

	// ListOwners returns every distinct stored owner value, legacy
	// empty forms included. Startup uses this to rebuild the volatile
	// indexes partition by partition.
	ListOwners(ctx context.Context) ([]string, error)

	// DeleteDocument removes a document and its chunks in one
	// transaction and returns the deleted chunk IDs so the caller can
	// delete the matching vectors and keyword postings.
	DeleteDocument(ctx context.Context, id string, owner domain.OwnerFilter) ([]string, error)

	// Close releases resources.
	Close() error
}
