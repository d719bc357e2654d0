package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/core/ports/driving"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrieveService = (*RetrievalService)(nil)

// rankedChunk holds intermediate candidates before hydration.
type rankedChunk struct {
	chunkID string
	score   float64
	source  string // "keyword", "semantic", or "fused"
}

// RetrievalService answers queries by fusing semantic and keyword
// rankings, reranking for diversity and fitting results into a token
// budget.
type RetrievalService struct {
	evidence driven.EvidenceStore
	vectors  driven.VectorStore
	keywords driven.KeywordIndex
	embedder driven.EmbeddingService

	rrfConst  int
	diversity float64
	threshold float64
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithRRFConstant overrides the rank fusion constant.
func WithRRFConstant(k int) RetrievalOption {
	return func(s *RetrievalService) {
		if k > 0 {
			s.rrfConst = k
		}
	}
}

// WithDiversityThreshold overrides the Jaccard similarity above which a
// candidate is considered a near-duplicate of an admitted result.
func WithDiversityThreshold(threshold float64) RetrievalOption {
	return func(s *RetrievalService) {
		if threshold > 0 {
			s.diversity = threshold
		}
	}
}

// WithScoreThreshold overrides the minimum cosine similarity for
// semantic candidates.
func WithScoreThreshold(threshold float64) RetrievalOption {
	return func(s *RetrievalService) {
		s.threshold = threshold
	}
}

// NewRetrievalService creates a new retrieval service. The embedder and
// keyword index are optional (can be nil); the service degrades to
// whichever ranking sources remain.
func NewRetrievalService(
	evidence driven.EvidenceStore,
	vectors driven.VectorStore,
	keywords driven.KeywordIndex,
	embedder driven.EmbeddingService,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		evidence:  evidence,
		vectors:   vectors,
		keywords:  keywords,
		embedder:  embedder,
		rrfConst:  domain.DefaultRRFConst,
		diversity: domain.DefaultDiversity,
		threshold: domain.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve answers a query with ranked, provenance-tagged context.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) (*domain.RetrieveResult, error) {
	started := time.Now()

	if opts.Owner.IsZero() {
		return nil, fmt.Errorf("%w: owner identity required", domain.ErrInvalidInput)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.RetrieveResult{Items: []domain.RetrievedItem{}}, nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q owner=%s topK=%d budget=%d", query, opts.Owner, topK, maxTokens)

	filter := opts.Owner.Filter()

	// Candidates beyond topK feed the diversity and bucket filters.
	candidateLimit := topK * 2

	candidates, degradations, err := s.gatherCandidates(ctx, query, filter, opts, candidateLimit)
	if err != nil {
		return nil, err
	}
	logger.Debug("Candidates: %d (degradations: %d)", len(candidates), len(degradations))

	result := &domain.RetrieveResult{
		Items:        []domain.RetrievedItem{},
		Degradations: degradations,
	}

	items, expired := s.assemble(ctx, candidates, filter, opts, topK, maxTokens)
	if expired {
		result.Degradations = append(result.Degradations, "deadline expired, returning partial results")
	}
	result.Items = items

	for _, item := range items {
		result.TokensUsed += item.Tokens
	}

	if opts.Augment && result.TokensUsed < maxTokens && !expired {
		s.augment(ctx, result, filter, maxTokens)
	}

	result.Degraded = len(result.Degradations) > 0
	result.SearchTime = time.Since(started)
	logger.Info("Retrieved %d items, %d tokens, %v", len(result.Items), result.TokensUsed, result.SearchTime)

	return result, nil
}

// gatherCandidates runs the available ranking sources, concurrently when
// both are live, and fuses their rankings.
func (s *RetrievalService) gatherCandidates(
	ctx context.Context,
	query string,
	filter domain.OwnerFilter,
	opts domain.RetrieveOptions,
	limit int,
) ([]rankedChunk, []string, error) {
	var degradations []string

	semanticLive := s.vectors != nil && s.embedder != nil
	keywordLive := s.keywords != nil

	if !opts.HybridSearch {
		// Semantic-only when requested; keyword is the last resort.
		if semanticLive {
			semantic, err := s.semanticSearch(ctx, query, filter, opts.Bucket, limit)
			if err == nil {
				return semantic, degradations, nil
			}
			logger.Warn("Semantic search failed: %v", err)
			degradations = append(degradations, "semantic search unavailable, keyword-only results")
		}
		if keywordLive {
			keyword, err := s.keywordSearch(ctx, query, filter, limit)
			if err != nil {
				if ctx.Err() != nil {
					return nil, append(degradations, "deadline expired, returning partial results"), nil
				}
				return nil, nil, fmt.Errorf("keyword search: %w", err)
			}
			return keyword, degradations, nil
		}
		return nil, nil, fmt.Errorf("%w: no ranking source available", domain.ErrVectorStoreUnavailable)
	}

	var semantic, keyword []rankedChunk
	var semanticErr, keywordErr error

	if !semanticLive {
		semanticErr = domain.ErrEmbeddingUnavailable
	}
	if !keywordLive {
		keywordErr = domain.ErrKeywordIndexUnavailable
	}

	if semanticLive && keywordLive {
		done := make(chan struct{})
		go func() {
			defer close(done)
			keyword, keywordErr = s.keywordSearch(ctx, query, filter, limit)
		}()
		semantic, semanticErr = s.semanticSearch(ctx, query, filter, opts.Bucket, limit)
		<-done
	} else if semanticLive {
		semantic, semanticErr = s.semanticSearch(ctx, query, filter, opts.Bucket, limit)
	} else if keywordLive {
		keyword, keywordErr = s.keywordSearch(ctx, query, filter, limit)
	}

	switch {
	case semanticErr != nil && keywordErr != nil:
		// Deadline exceedance degrades to whatever was assembled so far
		// rather than failing the whole query.
		if ctx.Err() != nil {
			logger.Warn("Deadline expired before ranking completed: semantic=%v keyword=%v", semanticErr, keywordErr)
			return nil, append(degradations, "deadline expired, returning partial results"), nil
		}
		logger.Warn("Both ranking sources failed: semantic=%v keyword=%v", semanticErr, keywordErr)
		return nil, nil, fmt.Errorf("retrieve: semantic=%w, keyword=%w", semanticErr, keywordErr)

	case semanticErr != nil:
		logger.Warn("Semantic search failed, keyword-only: %v", semanticErr)
		degradations = append(degradations, "semantic search unavailable, keyword-only results")
		return keyword, degradations, nil

	case keywordErr != nil:
		logger.Warn("Keyword search failed, semantic-only: %v (%v)", keywordErr, domain.ErrHybridFusionDegraded)
		degradations = append(degradations, "keyword search unavailable, semantic-only results")
		return semantic, degradations, nil
	}

	logger.Debug("Fusing %d semantic + %d keyword candidates", len(semantic), len(keyword))
	return s.reciprocalRankFusion(semantic, keyword), degradations, nil
}

// semanticSearch embeds the query and searches the vector store.
func (s *RetrievalService) semanticSearch(
	ctx context.Context, query string, filter domain.OwnerFilter, bucket *domain.Bucket, limit int,
) ([]rankedChunk, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, embedding, driven.VectorQuery{
		TopK:      limit,
		Threshold: s.threshold,
		Owner:     filter,
		Bucket:    bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]rankedChunk, len(hits))
	for i, hit := range hits {
		results[i] = rankedChunk{chunkID: hit.ChunkID, score: hit.Score, source: "semantic"}
	}
	return results, nil
}

// keywordSearch scores the query against the BM25 index.
func (s *RetrievalService) keywordSearch(
	ctx context.Context, query string, filter domain.OwnerFilter, limit int,
) ([]rankedChunk, error) {
	hits, err := s.keywords.Search(ctx, query, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]rankedChunk, len(hits))
	for i, hit := range hits {
		results[i] = rankedChunk{chunkID: hit.ChunkID, score: hit.Score, source: "keyword"}
	}
	return results, nil
}

// reciprocalRankFusion merges two ranked lists. Ties break on chunk ID
// so repeated queries return identical orderings.
func (s *RetrievalService) reciprocalRankFusion(list1, list2 []rankedChunk) []rankedChunk {
	scores := make(map[string]float64)

	for rank, c := range list1 {
		scores[c.chunkID] += 1.0 / float64(s.rrfConst+rank+1)
	}
	for rank, c := range list2 {
		scores[c.chunkID] += 1.0 / float64(s.rrfConst+rank+1)
	}

	fused := make([]rankedChunk, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, rankedChunk{chunkID: id, score: score, source: "fused"})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].chunkID < fused[j].chunkID
	})

	return fused
}

// assemble hydrates candidates in rank order, applying the bucket
// filter, diversity rerank and token budget. It stops early when the
// context expires and reports that through the second return value.
func (s *RetrievalService) assemble(
	ctx context.Context,
	candidates []rankedChunk,
	filter domain.OwnerFilter,
	opts domain.RetrieveOptions,
	topK, maxTokens int,
) ([]domain.RetrievedItem, bool) {
	items := make([]domain.RetrievedItem, 0, topK)
	admitted := make([]map[string]struct{}, 0, topK)
	budget := maxTokens

	for _, candidate := range candidates {
		if len(items) >= topK {
			break
		}
		if ctx.Err() != nil {
			return items, true
		}

		chunk, err := s.evidence.GetChunk(ctx, candidate.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // purged since indexing
			}
			logger.Warn("Hydrate chunk %s: %v", candidate.chunkID, err)
			continue
		}

		// The owner filter on document lookup enforces partition
		// isolation for every candidate, whichever index produced it.
		doc, err := s.evidence.GetDocument(ctx, chunk.DocumentID, filter)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			logger.Warn("Hydrate document %s: %v", chunk.DocumentID, err)
			continue
		}

		if opts.Bucket != nil && doc.Bucket != *opts.Bucket {
			continue
		}

		tokens := chunk.TokenEstimate
		if tokens == 0 {
			tokens = domain.EstimateTokens(chunk.Content)
		}
		if tokens > budget {
			// Accumulation stops before the item that would overflow;
			// chunks are never truncated and lower-ranked items never
			// fill the gap.
			break
		}

		terms := tokenSet(chunk.Content)
		if opts.Rerank && s.nearDuplicate(terms, admitted) {
			logger.Debug("Rerank: dropping near-duplicate chunk %s", chunk.ID)
			continue
		}

		items = append(items, domain.RetrievedItem{
			ChunkID: chunk.ID,
			Content: chunk.Content,
			Score:   candidate.score,
			Bucket:  doc.Bucket,
			Provenance: domain.Provenance{
				DocumentID: doc.ID,
				Title:      doc.Title,
				Source:     doc.Source,
				Position:   chunk.Position,
			},
			Tokens: tokens,
		})
		admitted = append(admitted, terms)
		budget -= tokens
	}

	return items, false
}

// nearDuplicate reports whether the term set overlaps an admitted
// result beyond the diversity threshold.
func (s *RetrievalService) nearDuplicate(terms map[string]struct{}, admitted []map[string]struct{}) bool {
	for _, other := range admitted {
		if jaccard(terms, other) > s.diversity {
			return true
		}
	}
	return false
}

// augment appends sibling chunks of admitted documents while budget
// remains, in admission order then document position order.
func (s *RetrievalService) augment(
	ctx context.Context, result *domain.RetrieveResult, filter domain.OwnerFilter, maxTokens int,
) {
	included := make(map[string]struct{}, len(result.Items))
	for _, item := range result.Items {
		included[item.ChunkID] = struct{}{}
	}

	// Snapshot: augmentation extends, never reorders, the ranked items.
	ranked := result.Items

	for _, item := range ranked {
		if ctx.Err() != nil {
			return
		}

		siblings, err := s.evidence.GetChunks(ctx, item.Provenance.DocumentID)
		if err != nil {
			logger.Warn("Augment: get chunks for %s: %v", item.Provenance.DocumentID, err)
			continue
		}

		for _, sibling := range siblings {
			if _, ok := included[sibling.ID]; ok {
				continue
			}
			// Only immediate neighbours of the admitted chunk.
			if sibling.Position != item.Provenance.Position-1 &&
				sibling.Position != item.Provenance.Position+1 {
				continue
			}

			tokens := sibling.TokenEstimate
			if tokens == 0 {
				tokens = domain.EstimateTokens(sibling.Content)
			}
			if result.TokensUsed+tokens > maxTokens {
				continue
			}

			result.Items = append(result.Items, domain.RetrievedItem{
				ChunkID: sibling.ID,
				Content: sibling.Content,
				Score:   0,
				Bucket:  item.Bucket,
				Provenance: domain.Provenance{
					DocumentID: item.Provenance.DocumentID,
					Title:      item.Provenance.Title,
					Source:     item.Provenance.Source,
					Position:   sibling.Position,
				},
				Tokens: tokens,
			})
			included[sibling.ID] = struct{}{}
			result.TokensUsed += tokens
		}
	}
}

// tokenSet lowercases and splits text into its unique terms.
func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[strings.Trim(f, ".,;:!?\"'()[]{}")] = struct{}{}
	}
	delete(set, "")
	return set
}

// jaccard computes set overlap as |intersection| / |union|.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for term := range a {
		if _, ok := b[term]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
