package domain

import "time"

// SourceType identifies where a document came from.
type SourceType string

// Known source types.
const (
	SourceUpload       SourceType = "upload"
	SourceConversation SourceType = "conversation"
	SourceWeb          SourceType = "web"
	SourceNote         SourceType = "note"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceUpload, SourceConversation, SourceWeb, SourceNote:
		return true
	default:
		return false
	}
}

// Document represents a unit of ingested content. Documents are
// immutable once stored; re-ingesting the same content produces a new
// version rather than mutating in place.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Source identifies where the content came from.
	Source SourceType

	// Title is the human-readable title.
	Title string

	// Length is the raw text length in runes.
	Length int

	// Owner is the canonical owner partition value. Always populated
	// through NormalizeIdentity; the guest sentinel is stored explicitly.
	Owner string

	// Bucket is the advisory classification assigned during ingestion.
	Bucket Bucket

	// Version increments on re-ingestion of the same logical content.
	Version int

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk is a contiguous slice of a document's text, the unit of both
// indexing and retrieval. Chunks from one document never overlap in
// index order.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the text content of this chunk.
	Content string

	// StartOffset and EndOffset are rune offsets into the document text.
	StartOffset int
	EndOffset   int

	// TokenEstimate is the approximate token count used for budgeting.
	TokenEstimate int

	// Embedding is the vector representation for semantic search.
	// Dimension is constant across the corpus for a given model.
	Embedding []float32
}

// Classification is the structured output of the classifier capability.
type Classification struct {
	// Summary is a one-line description of the content.
	Summary string

	// Bucket is the assigned topical label.
	Bucket Bucket

	// Confidence is the classifier's self-reported confidence, 0-100.
	Confidence int

	// Entities are named entities extracted from the content.
	Entities []string
}

// Unclassified is the classification used when the classifier fails or
// is not configured.
func Unclassified() Classification {
	return Classification{Bucket: BucketUnspecified, Confidence: 0}
}
