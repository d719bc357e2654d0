package driving

import (
	"context"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// IngestService turns raw content into searchable knowledge.
type IngestService interface {
	// Ingest chunks, embeds, classifies and stores the content under
	// the given owner partition. Partial failure in advisory stages
	// (classification) is reported through receipt warnings, not as an
	// error.
	Ingest(ctx context.Context, content string, meta domain.SourceMetadata, owner domain.Identity) (*domain.IngestReceipt, error)

	// Purge removes a document with its chunks, vectors and keyword
	// postings. Only the owning partition can purge a document.
	Purge(ctx context.Context, documentID string, owner domain.Identity) error
}

// RetrieveService answers queries with ranked, provenance-tagged,
// token-budgeted context.
type RetrieveService interface {
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) (*domain.RetrieveResult, error)
}
