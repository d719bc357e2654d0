package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/mnemo/internal/adapters/driven/storage/memory"
	"github.com/meridian-labs/mnemo/internal/core/domain"
)

func saveDocumentWithEmbeddings(
	t *testing.T, store *memory.EvidenceStore, docID, owner string, embeddings map[int][]float32, contents ...string,
) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID:        docID,
		Source:    domain.SourceNote,
		Title:     "Doc " + docID,
		Owner:     owner,
		Bucket:    domain.BucketProject,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}))

	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{
			ID:            chunkID(docID, i),
			DocumentID:    docID,
			Position:      i,
			Content:       content,
			TokenEstimate: domain.EstimateTokens(content),
			Embedding:     embeddings[i],
		}
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))
}

func TestRehydrate_RebuildsKeywordAndVectorIndexes(t *testing.T) {
	evidence := memory.NewEvidenceStore()
	saveDocumentWithEmbeddings(t, evidence, "doc-1", "alice",
		map[int][]float32{0: {0.1, 0.2}, 1: {0.3, 0.4}},
		"first stored chunk", "second stored chunk")

	keywords := &mockKeywordIndex{}
	vectors := &mockVectorStore{}

	require.NoError(t, Rehydrate(context.Background(), evidence, keywords, vectors))

	assert.ElementsMatch(t, []string{"doc-1-c0", "doc-1-c1"}, keywords.indexed)
	require.Len(t, vectors.upserted, 2)
	for _, rec := range vectors.upserted {
		assert.Equal(t, "doc-1", rec.DocumentID)
		assert.Equal(t, "alice", rec.Owner)
		assert.Equal(t, domain.BucketProject, rec.Bucket)
		assert.NotEmpty(t, rec.Vector)
	}
}

func TestRehydrate_SkipsVectorsForChunksWithoutEmbeddings(t *testing.T) {
	evidence := memory.NewEvidenceStore()
	saveDocumentWithEmbeddings(t, evidence, "doc-1", "alice",
		map[int][]float32{1: {0.5, 0.6}},
		"no embedding here", "this one was embedded")

	keywords := &mockKeywordIndex{}
	vectors := &mockVectorStore{}

	require.NoError(t, Rehydrate(context.Background(), evidence, keywords, vectors))

	// Both chunks are searchable by keyword, only one by vector.
	assert.Len(t, keywords.indexed, 2)
	require.Len(t, vectors.upserted, 1)
	assert.Equal(t, "doc-1-c1", vectors.upserted[0].ChunkID)
}

func TestRehydrate_LegacyEmptyOwnerIndexedUnderGuest(t *testing.T) {
	evidence := memory.NewEvidenceStore()
	saveDocumentWithEmbeddings(t, evidence, "doc-legacy", "",
		map[int][]float32{0: {0.1, 0.2}},
		"written before owners existed")
	saveDocumentWithEmbeddings(t, evidence, "doc-guest", "guest",
		map[int][]float32{0: {0.3, 0.4}},
		"written as guest")

	keywords := &mockKeywordIndex{}
	vectors := &mockVectorStore{}

	require.NoError(t, Rehydrate(context.Background(), evidence, keywords, vectors))

	// Empty and "guest" collapse into one partition: each chunk is
	// visited exactly once, under the canonical guest identity.
	assert.ElementsMatch(t, []string{"doc-legacy-c0", "doc-guest-c0"}, keywords.indexed)
	require.Len(t, vectors.upserted, 2)
	for _, rec := range vectors.upserted {
		assert.Equal(t, "guest", rec.Owner)
	}
}

func TestRehydrate_NilVectorStoreRebuildsKeywordsOnly(t *testing.T) {
	evidence := memory.NewEvidenceStore()
	saveDocumentWithEmbeddings(t, evidence, "doc-1", "alice",
		map[int][]float32{0: {0.1, 0.2}},
		"persistent vector backend")

	keywords := &mockKeywordIndex{}

	require.NoError(t, Rehydrate(context.Background(), evidence, keywords, nil))
	assert.Len(t, keywords.indexed, 1)
}

func TestRehydrate_EmptyStoreIsNoop(t *testing.T) {
	evidence := memory.NewEvidenceStore()
	keywords := &mockKeywordIndex{}
	vectors := &mockVectorStore{}

	require.NoError(t, Rehydrate(context.Background(), evidence, keywords, vectors))
	assert.Empty(t, keywords.indexed)
	assert.Empty(t, vectors.upserted)
}
