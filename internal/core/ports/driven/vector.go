package driven

import (
	"context"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// VectorStore provides similarity search over chunk embeddings. Every
// backend (in-memory, pgvector, Milvus) implements the identical
// contract; switching backends changes latency and scale, never the
// shape of results.
type VectorStore interface {
	// Upsert stores records, replacing any existing record with the
	// same chunk ID. Records whose vector dimension disagrees with the
	// store are rejected with domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Search returns up to q.TopK hits sorted by cosine similarity
	// descending, excluding scores below q.Threshold. The owner filter
	// is mandatory and applied before ranking.
	Search(ctx context.Context, query []float32, q VectorQuery) ([]VectorHit, error)

	// Delete removes the given chunk IDs. Unknown IDs are ignored.
	Delete(ctx context.Context, chunkIDs []string) error

	// Dimensions returns the configured vector dimension.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorRecord is one chunk's entry in the vector store.
type VectorRecord struct {
	ChunkID    string
	DocumentID string
	Vector     []float32

	// Owner is the canonical owner partition value.
	Owner string

	Bucket  domain.Bucket
	Content string
}

// VectorQuery configures a similarity search.
type VectorQuery struct {
	// TopK is the maximum number of hits to return.
	TopK int

	// Threshold excludes hits with a lower cosine similarity.
	Threshold float64

	// Owner restricts hits to one partition. Built through
	// domain.Identity.Filter; a zero filter is a programming error and
	// rejected with domain.ErrInvalidInput.
	Owner domain.OwnerFilter

	// Bucket optionally restricts hits to one advisory bucket.
	Bucket *domain.Bucket
}

// VectorHit is a single similarity search result.
type VectorHit struct {
	ChunkID    string
	DocumentID string

	// Score is the cosine similarity in [-1, 1].
	Score float64

	Bucket  domain.Bucket
	Content string
}
