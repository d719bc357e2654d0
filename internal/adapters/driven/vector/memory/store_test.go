package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
)

func record(chunkID, owner string, vec []float32) driven.VectorRecord {
	return driven.VectorRecord{
		ChunkID:    chunkID,
		DocumentID: "doc-" + chunkID,
		Vector:     vec,
		Owner:      owner,
		Bucket:     domain.BucketUnspecified,
		Content:    "content of " + chunkID,
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	s := New(3)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		record("exact", "user-1", []float32{1, 0, 0}),
		record("close", "user-1", []float32{0.9, 0.1, 0}),
		record("orthogonal", "user-1", []float32{0, 1, 0}),
		record("opposite", "user-1", []float32{-1, 0, 0}),
	}))

	owner := domain.NormalizeIdentity("user-1").Filter()
	hits, err := s.Search(ctx, []float32{1, 0, 0}, driven.VectorQuery{TopK: 10, Threshold: 0.25, Owner: owner})
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "exact", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "close", hits[1].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchTopKTruncation(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		record("a", "user-1", []float32{1, 0}),
		record("b", "user-1", []float32{0.9, 0.1}),
		record("c", "user-1", []float32{0.8, 0.2}),
	}))

	owner := domain.NormalizeIdentity("user-1").Filter()
	hits, err := s.Search(ctx, []float32{1, 0}, driven.VectorQuery{TopK: 2, Threshold: 0, Owner: owner})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchOwnerIsolation(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		record("guest-sentinel", domain.GuestOwner, []float32{1, 0}),
		record("guest-absent", "", []float32{1, 0}),
		record("alice", "alice", []float32{1, 0}),
	}))

	// Guest sees both guest representations, not alice's data.
	guest := domain.NormalizeIdentity("").Filter()
	hits, err := s.Search(ctx, []float32{1, 0}, driven.VectorQuery{TopK: 10, Owner: guest})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "guest-absent", hits[0].ChunkID)
	assert.Equal(t, "guest-sentinel", hits[1].ChunkID)

	// Alice sees only her own data.
	alice := domain.NormalizeIdentity("alice").Filter()
	hits, err = s.Search(ctx, []float32{1, 0}, driven.VectorQuery{TopK: 10, Owner: alice})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].ChunkID)
}

func TestSearchBucketFilter(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	personal := record("p", "user-1", []float32{1, 0})
	personal.Bucket = domain.BucketPersonal
	project := record("w", "user-1", []float32{1, 0})
	project.Bucket = domain.BucketProject
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{personal, project}))

	owner := domain.NormalizeIdentity("user-1").Filter()
	bucket := domain.BucketPersonal
	hits, err := s.Search(ctx, []float32{1, 0}, driven.VectorQuery{TopK: 10, Owner: owner, Bucket: &bucket})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p", hits[0].ChunkID)
}

func TestUpsertIdempotentOnChunkID(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{record("a", "user-1", []float32{1, 0})}))
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{record("a", "user-1", []float32{0, 1})}))

	owner := domain.NormalizeIdentity("user-1").Filter()
	hits, err := s.Search(ctx, []float32{0, 1}, driven.VectorQuery{TopK: 10, Owner: owner})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestUpsertDimensionMismatch(t *testing.T) {
	s := New(3)

	err := s.Upsert(context.Background(), []driven.VectorRecord{record("a", "user-1", []float32{1, 0})})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearchRejectsZeroFilter(t *testing.T) {
	s := New(2)

	_, err := s.Search(context.Background(), []float32{1, 0}, driven.VectorQuery{TopK: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{record("a", "user-1", []float32{1, 0})}))
	require.NoError(t, s.Delete(ctx, []string{"a", "missing"}))

	owner := domain.NormalizeIdentity("user-1").Filter()
	hits, err := s.Search(ctx, []float32{1, 0}, driven.VectorQuery{TopK: 10, Owner: owner})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
