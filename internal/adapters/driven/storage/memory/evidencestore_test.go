package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

func testDocument(id, owner string) *domain.Document {
	return &domain.Document{
		ID:        id,
		Source:    domain.SourceNote,
		Title:     "Test Document",
		Owner:     owner,
		Bucket:    domain.BucketPersonal,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
}

func TestEvidenceStore_SaveAndGet(t *testing.T) {
	store := NewEvidenceStore()
	ctx := context.Background()
	owner := domain.NormalizeIdentity("alice")

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", owner.String())))

	got, err := store.GetDocument(ctx, "doc-1", owner.Filter())
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)

	_, err = store.GetDocument(ctx, "doc-1", domain.NormalizeIdentity("bob").Filter())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvidenceStore_GuestEquivalence(t *testing.T) {
	store := NewEvidenceStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-legacy", "")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-sentinel", domain.GuestOwner)))

	docs, err := store.ListDocuments(ctx, domain.NormalizeIdentity("").Filter())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestEvidenceStore_ListOwners(t *testing.T) {
	store := NewEvidenceStore()
	ctx := context.Background()

	owners, err := store.ListOwners(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "alice")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-2", "alice")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-3", "bob")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-4", "")))

	owners, err = store.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "alice", "bob"}, owners)
}

func TestEvidenceStore_ChunksRoundTrip(t *testing.T) {
	store := NewEvidenceStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c-1", DocumentID: "doc-1", Position: 1, Content: "second"},
		{ID: "c-0", DocumentID: "doc-1", Position: 0, Content: "first"},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)

	chunk, err := store.GetChunk(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "second", chunk.Content)
}

func TestEvidenceStore_DeleteReturnsChunkIDs(t *testing.T) {
	store := NewEvidenceStore()
	ctx := context.Background()
	owner := domain.NormalizeIdentity("alice")

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", owner.String())))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c-0", DocumentID: "doc-1", Position: 0},
		{ID: "c-1", DocumentID: "doc-1", Position: 1},
	}))

	ids, err := store.DeleteDocument(ctx, "doc-1", owner.Filter())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-0", "c-1"}, ids)

	_, err = store.GetDocument(ctx, "doc-1", owner.Filter())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvidenceStore_DeleteForeignOwnerRejected(t *testing.T) {
	store := NewEvidenceStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "alice")))

	_, err := store.DeleteDocument(ctx, "doc-1", domain.NormalizeIdentity("bob").Filter())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvidenceStore_ZeroFilterRejected(t *testing.T) {
	store := NewEvidenceStore()
	ctx := context.Background()

	var zero domain.OwnerFilter

	_, err := store.GetDocument(ctx, "doc-1", zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.ListDocuments(ctx, zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.DeleteDocument(ctx, "doc-1", zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
