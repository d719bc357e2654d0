// Package bm25 provides an in-memory inverted index with BM25 ranking.
// The index is partitioned by owner identity: postings are stored and
// scored strictly within one partition.
package bm25

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.KeywordIndex = (*Index)(nil)

// posting records a term's frequency within one chunk.
type posting struct {
	chunkID string
	freq    int
}

// partition holds the inverted index for one owner.
type partition struct {
	postings map[string][]posting // term -> postings
	lengths  map[string]int       // chunkID -> token count
	totalLen int
}

func newPartition() *partition {
	return &partition{
		postings: make(map[string][]posting),
		lengths:  make(map[string]int),
	}
}

// Index is a mutex-guarded in-memory BM25 index, safe for concurrent
// ingestion and search.
type Index struct {
	mu         sync.RWMutex
	k1         float64
	b          float64
	partitions map[string]*partition // canonical owner -> partition
	owners     map[string]string     // chunkID -> canonical owner
}

// Option configures the index.
type Option func(*Index)

// WithK1 sets the BM25 term-frequency saturation constant.
func WithK1(k1 float64) Option {
	return func(i *Index) {
		if k1 > 0 {
			i.k1 = k1
		}
	}
}

// WithB sets the BM25 length-normalisation constant.
func WithB(b float64) Option {
	return func(i *Index) {
		if b >= 0 && b <= 1 {
			i.b = b
		}
	}
}

// New creates an empty index with standard BM25 defaults (k1=1.2, b=0.75).
func New(opts ...Option) *Index {
	idx := &Index{
		k1:         domain.DefaultBM25K1,
		b:          domain.DefaultBM25B,
		partitions: make(map[string]*partition),
		owners:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Index adds or replaces a chunk in the owner's partition.
func (i *Index) Index(_ context.Context, chunk domain.Chunk, owner domain.Identity) error {
	if owner.IsZero() {
		return fmt.Errorf("%w: owner identity not normalised", domain.ErrInvalidInput)
	}

	terms := tokenize(chunk.Content)

	i.mu.Lock()
	defer i.mu.Unlock()

	// Replace semantics: drop any previous postings for this chunk.
	i.removeLocked(chunk.ID)

	canonical := owner.String()
	part, ok := i.partitions[canonical]
	if !ok {
		part = newPartition()
		i.partitions[canonical] = part
	}

	freqs := make(map[string]int, len(terms))
	for _, term := range terms {
		freqs[term]++
	}
	for term, freq := range freqs {
		part.postings[term] = append(part.postings[term], posting{chunkID: chunk.ID, freq: freq})
	}

	part.lengths[chunk.ID] = len(terms)
	part.totalLen += len(terms)
	i.owners[chunk.ID] = canonical

	return nil
}

// Delete removes chunks from the index. Unknown IDs are ignored.
func (i *Index) Delete(_ context.Context, chunkIDs []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, id := range chunkIDs {
		i.removeLocked(id)
	}
	return nil
}

// removeLocked removes one chunk's postings. Caller holds the lock.
func (i *Index) removeLocked(chunkID string) {
	canonical, ok := i.owners[chunkID]
	if !ok {
		return
	}
	part := i.partitions[canonical]

	for term, postings := range part.postings {
		kept := postings[:0]
		for _, p := range postings {
			if p.chunkID != chunkID {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(part.postings, term)
		} else {
			part.postings[term] = kept
		}
	}

	part.totalLen -= part.lengths[chunkID]
	delete(part.lengths, chunkID)
	delete(i.owners, chunkID)
}

// Search scores the query against the owner partition and returns up to
// limit hits sorted by BM25 score descending. Partitions belonging to
// other owners are never touched.
func (i *Index) Search(_ context.Context, query string, owner domain.OwnerFilter, limit int) ([]driven.KeywordHit, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner filter not built through identity normaliser", domain.ErrInvalidInput)
	}

	terms := tokenize(query)
	if len(terms) == 0 || limit <= 0 {
		return []driven.KeywordHit{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	// The guest filter accepts both the sentinel and the historical
	// empty form; score across every accepted partition.
	scores := make(map[string]float64)
	for _, form := range owner.Forms() {
		part, ok := i.partitions[form]
		if !ok {
			continue
		}
		i.scorePartition(part, terms, scores)
	}

	hits := make([]driven.KeywordHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, driven.KeywordHit{ChunkID: chunkID, Score: score})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ChunkID < hits[b].ChunkID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// scorePartition accumulates BM25 scores for the query terms over one
// partition. Caller holds at least a read lock.
func (i *Index) scorePartition(part *partition, terms []string, scores map[string]float64) {
	n := len(part.lengths)
	if n == 0 {
		return
	}
	avgdl := float64(part.totalLen) / float64(n)
	if avgdl == 0 {
		return
	}

	for _, term := range terms {
		postings, ok := part.postings[term]
		if !ok {
			continue
		}

		df := len(postings)
		idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))

		for _, p := range postings {
			tf := float64(p.freq)
			dl := float64(part.lengths[p.chunkID])
			scores[p.chunkID] += idf * (tf * (i.k1 + 1)) / (tf + i.k1*(1-i.b+i.b*dl/avgdl))
		}
	}
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

// tokenize lowercases and splits text into terms.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
