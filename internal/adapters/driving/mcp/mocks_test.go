package mcp

import (
	"context"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// mockRetrieveService is a mock implementation of driving.RetrieveService.
type mockRetrieveService struct {
	result *domain.RetrieveResult
	opts   domain.RetrieveOptions
	err    error
}

func (m *mockRetrieveService) Retrieve(
	_ context.Context,
	_ string,
	opts domain.RetrieveOptions,
) (*domain.RetrieveResult, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrieveResult{}, nil
	}
	return m.result, nil
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	receipt  *domain.IngestReceipt
	owner    domain.Identity
	meta     domain.SourceMetadata
	purgedID string
	err      error
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	_ string,
	meta domain.SourceMetadata,
	owner domain.Identity,
) (*domain.IngestReceipt, error) {
	m.meta = meta
	m.owner = owner
	if m.err != nil {
		return nil, m.err
	}
	if m.receipt == nil {
		return &domain.IngestReceipt{}, nil
	}
	return m.receipt, nil
}

func (m *mockIngestService) Purge(_ context.Context, documentID string, owner domain.Identity) error {
	m.purgedID = documentID
	m.owner = owner
	return m.err
}

// mockEvidenceStore is a mock implementation of driven.EvidenceStore.
type mockEvidenceStore struct {
	documents []domain.Document
	document  *domain.Document
	chunks    []domain.Chunk
	filter    domain.OwnerFilter
	err       error
}

func (m *mockEvidenceStore) SaveDocument(_ context.Context, _ *domain.Document) error {
	return m.err
}

func (m *mockEvidenceStore) SaveChunks(_ context.Context, _ []domain.Chunk) error {
	return m.err
}

func (m *mockEvidenceStore) GetDocument(_ context.Context, _ string, owner domain.OwnerFilter) (*domain.Document, error) {
	m.filter = owner
	if m.err != nil {
		return nil, m.err
	}
	if m.document == nil {
		return nil, domain.ErrNotFound
	}
	return m.document, nil
}

func (m *mockEvidenceStore) GetChunk(_ context.Context, _ string) (*domain.Chunk, error) {
	if len(m.chunks) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.chunks[0], m.err
}

func (m *mockEvidenceStore) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockEvidenceStore) ListDocuments(_ context.Context, owner domain.OwnerFilter) ([]domain.Document, error) {
	m.filter = owner
	return m.documents, m.err
}

func (m *mockEvidenceStore) ListOwners(_ context.Context) ([]string, error) {
	return nil, m.err
}

func (m *mockEvidenceStore) DeleteDocument(_ context.Context, _ string, _ domain.OwnerFilter) ([]string, error) {
	return nil, m.err
}

func (m *mockEvidenceStore) Close() error {
	return nil
}
