package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/meridian-labs/mnemo/internal/chunker"
	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/core/ports/driving"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestService = (*IngestionService)(nil)

// DefaultEmbedConcurrency bounds parallel embedding requests per
// ingestion.
const DefaultEmbedConcurrency = 4

// DefaultEmbedBatchSize is how many chunks share one embedding request.
const DefaultEmbedBatchSize = 32

// IngestionService turns raw content into chunked, embedded, classified
// and indexed knowledge.
type IngestionService struct {
	chunker    *chunker.Chunker
	embedder   driven.EmbeddingService
	classifier *ClassifierService
	evidence   driven.EvidenceStore
	vectors    driven.VectorStore
	keywords   driven.KeywordIndex

	concurrency int
	batchSize   int
}

// IngestOption configures an IngestionService.
type IngestOption func(*IngestionService)

// WithEmbedConcurrency sets the ceiling on parallel embedding requests.
func WithEmbedConcurrency(n int) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithEmbedBatchSize sets how many chunks are embedded per request.
func WithEmbedBatchSize(n int) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewIngestionService creates a new ingestion service. The embedder,
// classifier, vector store and keyword index are optional (can be nil);
// ingestion records warnings for the capabilities it had to skip.
func NewIngestionService(
	ck *chunker.Chunker,
	embedder driven.EmbeddingService,
	classifier *ClassifierService,
	evidence driven.EvidenceStore,
	vectors driven.VectorStore,
	keywords driven.KeywordIndex,
	opts ...IngestOption,
) *IngestionService {
	s := &IngestionService{
		chunker:     ck,
		embedder:    embedder,
		classifier:  classifier,
		evidence:    evidence,
		vectors:     vectors,
		keywords:    keywords,
		concurrency: DefaultEmbedConcurrency,
		batchSize:   DefaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest chunks, embeds, classifies and stores content under the owner
// partition. Advisory stage failures (classification, keyword indexing)
// surface as receipt warnings; embedding failure aborts the ingestion.
func (s *IngestionService) Ingest(
	ctx context.Context, content string, meta domain.SourceMetadata, owner domain.Identity,
) (*domain.IngestReceipt, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner identity required", domain.ErrInvalidInput)
	}

	source := meta.Source
	if source == "" {
		source = domain.SourceUpload
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, meta.Source)
	}

	docID := uuid.NewString()
	chunks := s.chunker.Split(docID, content)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no indexable content", domain.ErrInvalidInput)
	}

	logger.Section("Ingestion")
	logger.Debug("Document %s: %d chunks, owner=%s, source=%s", docID, len(chunks), owner, source)

	var warnings []string

	// Classification runs concurrently with embedding; both stages only
	// read the content.
	classCh := make(chan domain.Classification, 1)
	go func() {
		if s.classifier == nil || !s.classifier.Available() {
			classCh <- domain.Unclassified()
			return
		}
		classification, err := s.classifier.Classify(ctx, content)
		if err != nil {
			logger.Warn("Classification degraded: %v", err)
		}
		classCh <- classification
	}()

	embedded := false
	if s.embedder != nil {
		if err := s.embedChunks(ctx, chunks); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
		embedded = true
	} else {
		warnings = append(warnings, "embedding service unavailable, keyword-only ingestion")
	}

	classification := <-classCh
	if classification.Bucket == domain.BucketUnspecified && s.classifier != nil && s.classifier.Available() {
		warnings = append(warnings, "classification unavailable, bucket left unspecified")
	}

	version, err := s.nextVersion(ctx, owner, source, meta.Title)
	if err != nil {
		return nil, fmt.Errorf("resolve version: %w", err)
	}

	title := meta.Title
	if title == "" {
		title = classification.Summary
	}

	doc := &domain.Document{
		ID:        docID,
		Source:    source,
		Title:     title,
		Length:    utf8.RuneCountInString(content),
		Owner:     owner.String(),
		Bucket:    classification.Bucket,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.evidence.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.evidence.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	if embedded && s.vectors != nil {
		if err := s.upsertVectors(ctx, doc, chunks); err != nil {
			// Keep evidence and vectors consistent: a document that was
			// never vectorised must not linger in the evidence store.
			if _, purgeErr := s.evidence.DeleteDocument(ctx, docID, owner.Filter()); purgeErr != nil {
				logger.Warn("Rollback after vector failure: %v", purgeErr)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
		}
	}

	if s.keywords != nil {
		for _, chunk := range chunks {
			if err := s.keywords.Index(ctx, chunk, owner); err != nil {
				logger.Warn("Keyword indexing failed for chunk %s: %v", chunk.ID, err)
				warnings = append(warnings, "keyword indexing incomplete")
				break
			}
		}
	}

	logger.Info("Ingested document %s: %d chunks, bucket=%s, warnings=%d",
		docID, len(chunks), classification.Bucket, len(warnings))

	return &domain.IngestReceipt{
		DocumentID: docID,
		ChunkCount: len(chunks),
		Bucket:     classification.Bucket,
		Warnings:   warnings,
	}, nil
}

// Purge removes a document together with its chunks, vectors and
// keyword postings. Only the owning partition can purge a document.
func (s *IngestionService) Purge(ctx context.Context, documentID string, owner domain.Identity) error {
	if owner.IsZero() {
		return fmt.Errorf("%w: owner identity required", domain.ErrInvalidInput)
	}

	chunkIDs, err := s.evidence.DeleteDocument(ctx, documentID, owner.Filter())
	if err != nil {
		return fmt.Errorf("purge document %s: %w", documentID, err)
	}

	var errs []error
	if s.vectors != nil {
		if err := s.vectors.Delete(ctx, chunkIDs); err != nil {
			errs = append(errs, fmt.Errorf("delete vectors: %w", err))
		}
	}
	if s.keywords != nil {
		if err := s.keywords.Delete(ctx, chunkIDs); err != nil {
			errs = append(errs, fmt.Errorf("delete keyword postings: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("purge %s: %w", documentID, errors.Join(errs...))
	}

	logger.Info("Purged document %s (%d chunks)", documentID, len(chunkIDs))
	return nil
}

// embedChunks fills chunk embeddings in place. Chunks go out in batches
// of s.batchSize, with at most s.concurrency requests in flight.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, s.concurrency)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return firstError(errCh, ctx.Err())
		}

		wg.Add(1)
		go func(batch []domain.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Content
			}

			embeddings, err := s.embedder.EmbedBatch(ctx, texts)
			if err == nil && len(embeddings) != len(batch) {
				err = fmt.Errorf("embedding batch returned %d vectors for %d chunks",
					len(embeddings), len(batch))
			}
			if err != nil {
				select {
				case errCh <- err:
					cancel()
				default:
				}
				return
			}
			for i := range batch {
				batch[i].Embedding = embeddings[i]
			}
		}(batch)
	}

	wg.Wait()
	return firstError(errCh, nil)
}

// firstError drains the error channel, preferring a recorded error over
// the fallback.
func firstError(errCh chan error, fallback error) error {
	select {
	case err := <-errCh:
		return err
	default:
		return fallback
	}
}

// upsertVectors mirrors the document's chunks into the vector store.
func (s *IngestionService) upsertVectors(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	records := make([]driven.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = driven.VectorRecord{
			ChunkID:    chunk.ID,
			DocumentID: doc.ID,
			Vector:     chunk.Embedding,
			Owner:      doc.Owner,
			Bucket:     doc.Bucket,
			Content:    chunk.Content,
		}
	}
	return s.vectors.Upsert(ctx, records)
}

// nextVersion finds the highest stored version of the same logical
// content (owner, source and title) and increments it.
func (s *IngestionService) nextVersion(
	ctx context.Context, owner domain.Identity, source domain.SourceType, title string,
) (int, error) {
	if title == "" {
		return 1, nil
	}

	docs, err := s.evidence.ListDocuments(ctx, owner.Filter())
	if err != nil {
		return 0, err
	}

	version := 1
	for _, doc := range docs {
		if doc.Source == source && doc.Title == title && doc.Version >= version {
			version = doc.Version + 1
		}
	}
	return version, nil
}
