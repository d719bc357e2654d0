package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(id, owner string) *domain.Document {
	return &domain.Document{
		ID:        id,
		Source:    domain.SourceUpload,
		Title:     "Test Document",
		Length:    420,
		Owner:     owner,
		Bucket:    domain.BucketProject,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
}

func testChunks(documentID string) []domain.Chunk {
	return []domain.Chunk{
		{
			ID:            documentID + "-0",
			DocumentID:    documentID,
			Position:      0,
			Content:       "first chunk of text",
			StartOffset:   0,
			EndOffset:     19,
			TokenEstimate: 5,
			Embedding:     []float32{0.1, 0.2, 0.3},
		},
		{
			ID:            documentID + "-1",
			DocumentID:    documentID,
			Position:      1,
			Content:       "second chunk of text",
			StartOffset:   15,
			EndOffset:     35,
			TokenEstimate: 5,
			Embedding:     []float32{0.4, 0.5, 0.6},
		},
	}
}

func TestStore_SaveAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := domain.NormalizeIdentity("alice")

	doc := testDocument("doc-1", owner.String())
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1", owner.Filter())
	require.NoError(t, err)

	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, domain.SourceUpload, got.Source)
	assert.Equal(t, "Test Document", got.Title)
	assert.Equal(t, 420, got.Length)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, domain.BucketProject, got.Bucket)
	assert.Equal(t, 1, got.Version)
}

func TestStore_GetDocument_ForeignOwnerHidden(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("doc-1", "alice")
	require.NoError(t, store.SaveDocument(ctx, doc))

	_, err := store.GetDocument(ctx, "doc-1", domain.NormalizeIdentity("bob").Filter())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetDocument_GuestSeesLegacyEmptyOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Rows written before the guest sentinel carry an empty owner.
	legacy := testDocument("doc-legacy", "")
	require.NoError(t, store.SaveDocument(ctx, legacy))

	sentinel := testDocument("doc-sentinel", domain.GuestOwner)
	require.NoError(t, store.SaveDocument(ctx, sentinel))

	guest := domain.NormalizeIdentity("").Filter()

	got, err := store.GetDocument(ctx, "doc-legacy", guest)
	require.NoError(t, err)
	assert.Equal(t, "doc-legacy", got.ID)

	docs, err := store.ListDocuments(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestStore_SaveAndGetChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "alice")))
	require.NoError(t, store.SaveChunks(ctx, testChunks("doc-1")))

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)
	assert.Equal(t, "first chunk of text", chunks[0].Content)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, chunks[0].Embedding)
	assert.Equal(t, 15, chunks[1].StartOffset)
	assert.Equal(t, 35, chunks[1].EndOffset)
}

func TestStore_GetChunk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "alice")))
	require.NoError(t, store.SaveChunks(ctx, testChunks("doc-1")))

	chunk, err := store.GetChunk(ctx, "doc-1-1")
	require.NoError(t, err)
	assert.Equal(t, "second chunk of text", chunk.Content)
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, chunk.Embedding)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListDocuments_PartitionIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-a", "alice")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-b", "alice")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-c", "bob")))

	docs, err := store.ListDocuments(ctx, domain.NormalizeIdentity("alice").Filter())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = store.ListDocuments(ctx, domain.NormalizeIdentity("bob").Filter())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_ListOwners(t *testing.T) {
	store := newTestStore(t)
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

func TestStore_DeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := domain.NormalizeIdentity("alice")

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", owner.String())))
	require.NoError(t, store.SaveChunks(ctx, testChunks("doc-1")))

	chunkIDs, err := store.DeleteDocument(ctx, "doc-1", owner.Filter())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-1-0", "doc-1-1"}, chunkIDs)

	_, err = store.GetDocument(ctx, "doc-1", owner.Filter())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStore_DeleteDocument_ForeignOwnerRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "alice")))
	require.NoError(t, store.SaveChunks(ctx, testChunks("doc-1")))

	_, err := store.DeleteDocument(ctx, "doc-1", domain.NormalizeIdentity("bob").Filter())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Document untouched.
	_, err = store.GetDocument(ctx, "doc-1", domain.NormalizeIdentity("alice").Filter())
	require.NoError(t, err)
}

func TestStore_ZeroFilterRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var zero domain.OwnerFilter

	_, err := store.GetDocument(ctx, "doc-1", zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.ListDocuments(ctx, zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.DeleteDocument(ctx, "doc-1", zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_SaveDocument_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := domain.NormalizeIdentity("alice")

	doc := testDocument("doc-1", owner.String())
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Version = 2
	doc.Title = "Revised Title"
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1", owner.Filter())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Revised Title", got.Title)

	docs, err := store.ListDocuments(ctx, owner.Filter())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_Reopen_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	owner := domain.NormalizeIdentity("alice")

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", owner.String())))
	require.NoError(t, store.SaveChunks(ctx, testChunks("doc-1")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetDocument(ctx, "doc-1", owner.Filter())
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)

	chunks, err := reopened.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}
