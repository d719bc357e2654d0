// Package chunker splits document text into fixed-size overlapping
// chunks with rune offsets.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping runes.
const DefaultOverlap = 200

// Chunker splits document content into overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for the window to advance.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split chunks the text of one document. Empty or whitespace-only text
// produces no chunks at all: the minimum-length rule is uniformly zero,
// nothing is silently dropped. Text shorter than the chunk size yields a
// single chunk. Concatenating the chunks minus their overlaps
// reconstructs the original text exactly.
func (c *Chunker) Split(documentID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	step := c.chunkSize - c.overlap

	chunks := make([]domain.Chunk, 0, total/step+1)

	position := 0
	for start := 0; start < total; start += step {
		end := start + c.chunkSize
		if end > total {
			end = total
		}

		content := string(runes[start:end])
		chunks = append(chunks, domain.Chunk{
			ID:            uuid.New().String(),
			DocumentID:    documentID,
			Position:      position,
			Content:       content,
			StartOffset:   start,
			EndOffset:     end,
			TokenEstimate: domain.EstimateTokens(content),
		})
		position++

		if end == total {
			break
		}
	}

	return chunks
}

// ChunkSize returns the configured chunk size in runes.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int {
	return c.overlap
}
