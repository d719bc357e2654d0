package cli

import (
	"context"
	"time"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// mockRetrieveService records the last query and returns canned results.
type mockRetrieveService struct {
	result *domain.RetrieveResult
	query  string
	opts   domain.RetrieveOptions
	err    error
}

func (m *mockRetrieveService) Retrieve(_ context.Context, query string, opts domain.RetrieveOptions) (*domain.RetrieveResult, error) {
	m.query = query
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrieveResult{}, nil
	}
	return m.result, nil
}

// mockIngestService records the last ingestion and purge.
type mockIngestService struct {
	receipt  *domain.IngestReceipt
	content  string
	meta     domain.SourceMetadata
	owner    domain.Identity
	purgedID string
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, content string, meta domain.SourceMetadata, owner domain.Identity) (*domain.IngestReceipt, error) {
	m.content = content
	m.meta = meta
	m.owner = owner
	if m.err != nil {
		return nil, m.err
	}
	if m.receipt == nil {
		return &domain.IngestReceipt{DocumentID: "doc-test", ChunkCount: 1, Bucket: domain.BucketUnspecified}, nil
	}
	return m.receipt, nil
}

func (m *mockIngestService) Purge(_ context.Context, documentID string, owner domain.Identity) error {
	m.purgedID = documentID
	m.owner = owner
	return m.err
}

// mockEvidenceStore serves canned documents for the list command.
type mockEvidenceStore struct {
	documents []domain.Document
	filter    domain.OwnerFilter
	err       error
}

func (m *mockEvidenceStore) SaveDocument(_ context.Context, _ *domain.Document) error { return m.err }

func (m *mockEvidenceStore) SaveChunks(_ context.Context, _ []domain.Chunk) error { return m.err }

func (m *mockEvidenceStore) GetDocument(_ context.Context, _ string, _ domain.OwnerFilter) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockEvidenceStore) GetChunk(_ context.Context, _ string) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}

func (m *mockEvidenceStore) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
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

func (m *mockEvidenceStore) Close() error { return nil }

// setupTestServices installs mock services and returns a cleanup func
// together with the installed mocks.
func setupTestServices() (*mockRetrieveService, *mockIngestService, *mockEvidenceStore, func()) {
	retrieve := &mockRetrieveService{
		result: &domain.RetrieveResult{
			Items: []domain.RetrievedItem{
				{
					ChunkID: "doc-1-c0",
					Content: "Grace prefers dark roast coffee.",
					Score:   0.031,
					Bucket:  domain.BucketPersonal,
					Provenance: domain.Provenance{
						DocumentID: "doc-1",
						Title:      "Coffee Notes",
						Source:     domain.SourceNote,
					},
					Tokens: 8,
				},
			},
			TokensUsed: 8,
			SearchTime: 3 * time.Millisecond,
		},
	}
	ingest := &mockIngestService{}
	evidence := &mockEvidenceStore{
		documents: []domain.Document{
			{
				ID:        "doc-1",
				Title:     "Coffee Notes",
				Source:    domain.SourceNote,
				Owner:     "grace",
				Bucket:    domain.BucketPersonal,
				Version:   1,
				CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			},
		},
	}

	oldRetrieve, oldIngest, oldEvidence := retrieveService, ingestService, evidenceStore
	SetServices(retrieve, ingest, evidence)

	cleanup := func() {
		retrieveService = oldRetrieve
		ingestService = oldIngest
		evidenceStore = oldEvidence
	}
	return retrieve, ingest, evidence, cleanup
}
