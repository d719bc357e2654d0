package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding capability exhausted
	// its retries. Ingestion aborts for the affected document; retrieval
	// degrades to keyword-only search.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector backend is unreachable.
	// Retrieval falls back to keyword-only search where configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrKeywordIndexUnavailable indicates the keyword index is not configured.
	ErrKeywordIndexUnavailable = errors.New("keyword index unavailable")

	// ErrClassificationDegraded indicates the classifier could not produce a
	// usable result. Non-fatal: the chunk is stored with BucketUnspecified.
	ErrClassificationDegraded = errors.New("classification degraded")

	// ErrHybridFusionDegraded indicates hybrid fusion fell back to a single
	// ranking source because the other was unavailable.
	ErrHybridFusionDegraded = errors.New("hybrid fusion degraded")

	// ErrDimensionMismatch indicates an embedding vector does not match the
	// corpus dimension. Mixing dimensions corrupts similarity scores, so
	// this is fatal to ingestion.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the generative capability is not configured.
	// Classification degrades to BucketUnspecified without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
