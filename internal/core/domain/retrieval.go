package domain

import (
	"time"
	"unicode/utf8"
)

// Default retrieval parameters. All of them can be overridden per query
// or through engine configuration.
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.25
	DefaultMaxTokens = 2000
	DefaultRRFConst  = 60
	DefaultDiversity = 0.7
	DefaultBM25K1    = 1.2
	DefaultBM25B     = 0.75
)

// RetrieveOptions configures a retrieval query.
type RetrieveOptions struct {
	// Owner is the partition to search. Mandatory; a zero identity is
	// rejected before any backend is touched.
	Owner Identity

	// TopK is the number of results requested (default DefaultTopK).
	TopK int

	// MaxTokens is the token budget for the assembled context
	// (default DefaultMaxTokens).
	MaxTokens int

	// Bucket optionally narrows results to one advisory bucket.
	Bucket *Bucket

	// HybridSearch fuses keyword and semantic rankings (default on).
	HybridSearch bool

	// Rerank applies diversity reranking to drop near-duplicate chunks
	// (default on).
	Rerank bool

	// Augment attaches sibling chunks of admitted documents when budget
	// remains.
	Augment bool

	// Deadline bounds the whole query. Zero means no deadline.
	Deadline time.Duration
}

// DefaultRetrieveOptions returns options with engine defaults applied
// for the given owner.
func DefaultRetrieveOptions(owner Identity) RetrieveOptions {
	return RetrieveOptions{
		Owner:        owner,
		TopK:         DefaultTopK,
		MaxTokens:    DefaultMaxTokens,
		HybridSearch: true,
		Rerank:       true,
	}
}

// Provenance describes which source a retrieved chunk came from, for
// citation alongside results.
type Provenance struct {
	DocumentID string
	Title      string
	Source     SourceType
	Position   int
}

// RetrievedItem is a single ranked, budget-fitted retrieval result.
type RetrievedItem struct {
	ChunkID    string
	Content    string
	Score      float64
	Bucket     Bucket
	Provenance Provenance
	Tokens     int
}

// RetrieveResult is the full response of a retrieval query.
type RetrieveResult struct {
	Items      []RetrievedItem
	TokensUsed int
	SearchTime time.Duration

	// Degraded is set when a ranking source was unavailable and the
	// query fell back to a reduced pipeline rather than failing.
	Degraded bool

	// Degradations names the fallbacks that occurred, for diagnostics.
	Degradations []string
}

// IngestReceipt summarises a completed ingestion.
type IngestReceipt struct {
	DocumentID string
	ChunkCount int
	Bucket     Bucket

	// Warnings records non-fatal stage failures (classification,
	// keyword indexing). Ingestion still succeeded.
	Warnings []string
}

// SourceMetadata carries caller-provided context for an ingestion.
type SourceMetadata struct {
	Source SourceType
	Title  string
}

// EstimateTokens approximates the token count of a text. The heuristic
// of four characters per token matches common BPE vocabularies closely
// enough for budget fitting.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
