// Package milvus provides a vector store backed by a managed Milvus
// deployment, for corpora that outgrow a single PostgreSQL instance.
// The contract is identical to the other backends; only latency and
// scale characteristics differ.
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultCollection = "knowledge_vectors"
	DefaultTimeout    = 10 * time.Second
	maxContentLen     = 65535
)

// Config holds configuration for the Milvus store.
type Config struct {
	// Address is the Milvus endpoint, host:port (required).
	Address string

	// Username and Password authenticate against a managed deployment.
	Username string
	Password string

	// Database is the Milvus database name (optional).
	Database string

	// Collection is the collection name (default: knowledge_vectors).
	Collection string

	// Dimensions is the embedding vector size (required).
	Dimensions int

	// Timeout bounds the initial connection (default: 10s).
	Timeout time.Duration
}

// Store is a Milvus-backed vector store.
type Store struct {
	client     *milvusclient.Client
	collection string
	dims       int
}

// New connects to Milvus and ensures the collection and index exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("milvus: address is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("milvus: dimensions must be positive")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := milvusclient.New(connectCtx, &milvusclient.ClientConfig{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", domain.ErrVectorStoreUnavailable, err)
	}

	s := &Store{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dimensions,
	}

	if err := s.ensureCollection(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}

	return s, nil
}

// ensureCollection creates the collection, cosine index, and loads it.
func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("%w: has collection: %v", domain.ErrVectorStoreUnavailable, err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(s.collection).
			WithDescription("Mnemo knowledge chunks")

		schema.WithField(entity.NewField().
			WithName("chunk_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true))
		schema.WithField(entity.NewField().
			WithName("document_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64))
		schema.WithField(entity.NewField().
			WithName("owner_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(128))
		schema.WithField(entity.NewField().
			WithName("bucket").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(32))
		schema.WithField(entity.NewField().
			WithName("content").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxContentLen))
		schema.WithField(entity.NewField().
			WithName("embedding").
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(s.dims)))

		if err := s.client.CreateCollection(ctx,
			milvusclient.NewCreateCollectionOption(s.collection, schema)); err != nil {
			return fmt.Errorf("%w: create collection: %v", domain.ErrVectorStoreUnavailable, err)
		}

		idx := index.NewIvfFlatIndex(entity.COSINE, 128)
		idxTask, err := s.client.CreateIndex(ctx,
			milvusclient.NewCreateIndexOption(s.collection, "embedding", idx))
		if err != nil {
			return fmt.Errorf("%w: create index: %v", domain.ErrVectorStoreUnavailable, err)
		}
		if err := idxTask.Await(ctx); err != nil {
			return fmt.Errorf("%w: await index: %v", domain.ErrVectorStoreUnavailable, err)
		}
	}

	loadTask, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("%w: load collection: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("%w: await load: %v", domain.ErrVectorStoreUnavailable, err)
	}

	return nil
}

// Upsert stores records, idempotent on chunk ID.
func (s *Store) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(records))
	documentIDs := make([]string, len(records))
	owners := make([]string, len(records))
	buckets := make([]string, len(records))
	contents := make([]string, len(records))
	vectors := make([][]float32, len(records))

	for i, rec := range records {
		if len(rec.Vector) != s.dims {
			return fmt.Errorf("%w: chunk %s has dimension %d, store expects %d",
				domain.ErrDimensionMismatch, rec.ChunkID, len(rec.Vector), s.dims)
		}
		chunkIDs[i] = rec.ChunkID
		documentIDs[i] = rec.DocumentID
		owners[i] = rec.Owner
		buckets[i] = rec.Bucket.String()
		contents[i] = truncate(rec.Content, maxContentLen)
		vectors[i] = rec.Vector
	}

	columns := []column.Column{
		column.NewColumnVarChar("chunk_id", chunkIDs),
		column.NewColumnVarChar("document_id", documentIDs),
		column.NewColumnVarChar("owner_id", owners),
		column.NewColumnVarChar("bucket", buckets),
		column.NewColumnVarChar("content", contents),
		column.NewColumnFloatVector("embedding", s.dims, vectors),
	}

	if _, err := s.client.Upsert(ctx,
		milvusclient.NewColumnBasedInsertOption(s.collection, columns...)); err != nil {
		return fmt.Errorf("%w: upsert: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Search runs an ANN query with a server-side owner filter expression.
func (s *Store) Search(ctx context.Context, query []float32, q driven.VectorQuery) ([]driven.VectorHit, error) {
	if q.Owner.IsZero() {
		return nil, fmt.Errorf("%w: owner filter not built through identity normaliser", domain.ErrInvalidInput)
	}
	if len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has dimension %d, store expects %d",
			domain.ErrDimensionMismatch, len(query), s.dims)
	}

	expr := ownerExpr(q.Owner)
	if q.Bucket != nil {
		expr += " and bucket == " + strconv.Quote(q.Bucket.String())
	}

	results, err := s.client.Search(ctx, milvusclient.NewSearchOption(
		s.collection,
		q.TopK,
		[]entity.Vector{entity.FloatVector(query)},
	).WithANNSField("embedding").
		WithFilter(expr).
		WithOutputFields("chunk_id", "document_id", "bucket", "content"))
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrVectorStoreUnavailable, err)
	}

	if len(results) == 0 {
		return []driven.VectorHit{}, nil
	}

	rs := results[0]
	hits := make([]driven.VectorHit, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		// Milvus reports COSINE similarity directly.
		score := float64(rs.Scores[i])
		if score < q.Threshold {
			continue
		}

		hit := driven.VectorHit{Score: score}
		for _, field := range rs.Fields {
			col, ok := field.(*column.ColumnVarChar)
			if !ok {
				continue
			}
			switch col.Name() {
			case "chunk_id":
				hit.ChunkID = col.Data()[i]
			case "document_id":
				hit.DocumentID = col.Data()[i]
			case "bucket":
				hit.Bucket = domain.ParseBucket(col.Data()[i])
			case "content":
				hit.Content = col.Data()[i]
			}
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// Delete removes the given chunk IDs.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	if _, err := s.client.Delete(ctx,
		milvusclient.NewDeleteOption(s.collection).WithStringIDs("chunk_id", chunkIDs)); err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Dimensions returns the configured vector dimension.
func (s *Store) Dimensions() int {
	return s.dims
}

// Close closes the client connection.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return s.client.Close(ctx)
}

// ownerExpr builds the Milvus filter expression matching every stored
// representation of the owner partition.
func ownerExpr(owner domain.OwnerFilter) string {
	forms := owner.Forms()
	quoted := make([]string, len(forms))
	for i, form := range forms {
		quoted[i] = strconv.Quote(form)
	}
	return "owner_id in [" + strings.Join(quoted, ", ") + "]"
}

// truncate clips a string to max bytes on a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	for len(string(runes)) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
