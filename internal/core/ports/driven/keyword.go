package driven

import (
	"context"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// KeywordIndex provides probabilistic keyword search (BM25) over chunk
// text. The index is partitioned by owner: postings from one partition
// are never scored against a query for another.
type KeywordIndex interface {
	// Index adds or replaces a chunk in the owner's partition.
	Index(ctx context.Context, chunk domain.Chunk, owner domain.Identity) error

	// Delete removes chunks from the index. Unknown IDs are ignored.
	Delete(ctx context.Context, chunkIDs []string) error

	// Search scores the query against one owner partition and returns
	// up to limit hits sorted by BM25 score descending.
	Search(ctx context.Context, query string, owner domain.OwnerFilter, limit int) ([]KeywordHit, error)

	// Close releases resources.
	Close() error
}

// KeywordHit is a single keyword search result.
type KeywordHit struct {
	ChunkID string

	// Score is the BM25 relevance score.
	Score float64
}
