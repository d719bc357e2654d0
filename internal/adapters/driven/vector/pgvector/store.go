// Package pgvector provides a vector store backed by PostgreSQL with
// the pgvector extension. This is the production default: it persists
// across restarts and filters server-side during similarity search.
package pgvector

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultTable   = "knowledge_vectors"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the pgvector store.
type Config struct {
	// ConnString is the PostgreSQL connection string (required).
	ConnString string

	// Table is the vector table name (default: knowledge_vectors).
	Table string

	// Dimensions is the embedding vector size (required).
	Dimensions int
}

// Store is a pgvector-backed vector store.
type Store struct {
	pool  *pgxpool.Pool
	table string
	dims  int
}

// New connects to PostgreSQL, ensures the extension, table and index
// exist, and returns the store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ConnString == "" {
		return nil, fmt.Errorf("pgvector: connection string is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("pgvector: dimensions must be positive")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	pool, err := pgxpool.New(ctx, cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", domain.ErrVectorStoreUnavailable, err)
	}

	s := &Store{
		pool:  pool,
		table: cfg.Table,
		dims:  cfg.Dimensions,
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// initialize creates the extension, table and cosine index.
func (s *Store) initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: create extension: %v", domain.ErrVectorStoreUnavailable, err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			chunk_id    TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			owner_id    TEXT NOT NULL DEFAULT '',
			bucket      TEXT NOT NULL DEFAULT 'UNSPECIFIED',
			content     TEXT NOT NULL,
			embedding   vector(%d)
		)`, s.table, s.dims)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("%w: create table: %v", domain.ErrVectorStoreUnavailable, err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`, s.table, s.table)
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("%w: create index: %v", domain.ErrVectorStoreUnavailable, err)
	}

	ownerIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s (owner_id)`, s.table, s.table)
	if _, err := s.pool.Exec(ctx, ownerIndex); err != nil {
		return fmt.Errorf("%w: create owner index: %v", domain.ErrVectorStoreUnavailable, err)
	}

	return nil
}

// Upsert stores records in one transaction, idempotent on chunk ID.
func (s *Store) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		if len(rec.Vector) != s.dims {
			return fmt.Errorf("%w: chunk %s has dimension %d, store expects %d",
				domain.ErrDimensionMismatch, rec.ChunkID, len(rec.Vector), s.dims)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrVectorStoreUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stmt := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, document_id, owner_id, bucket, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			owner_id    = EXCLUDED.owner_id,
			bucket      = EXCLUDED.bucket,
			content     = EXCLUDED.content,
			embedding   = EXCLUDED.embedding`, s.table)

	for _, rec := range records {
		if _, err := tx.Exec(ctx, stmt,
			rec.ChunkID, rec.DocumentID, rec.Owner, rec.Bucket.String(),
			rec.Content, pgv.NewVector(rec.Vector)); err != nil {
			return fmt.Errorf("%w: upsert chunk %s: %v", domain.ErrVectorStoreUnavailable, rec.ChunkID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Search runs a filtered cosine similarity query server-side.
// `embedding <=> $1` is cosine distance; score = 1 - distance.
func (s *Store) Search(ctx context.Context, query []float32, q driven.VectorQuery) ([]driven.VectorHit, error) {
	if q.Owner.IsZero() {
		return nil, fmt.Errorf("%w: owner filter not built through identity normaliser", domain.ErrInvalidInput)
	}
	if len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has dimension %d, store expects %d",
			domain.ErrDimensionMismatch, len(query), s.dims)
	}

	args := []any{pgv.NewVector(query), q.Owner.Forms(), q.Threshold}
	bucketClause := ""
	if q.Bucket != nil {
		args = append(args, q.Bucket.String())
		bucketClause = "AND bucket = $4"
	}
	args = append(args, q.TopK)

	sql := fmt.Sprintf(`
		SELECT chunk_id, document_id, bucket, content, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE owner_id = ANY($2)
		  AND 1 - (embedding <=> $1) >= $3
		  %s
		ORDER BY embedding <=> $1
		LIMIT $%d`, s.table, bucketClause, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrVectorStoreUnavailable, err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var hit driven.VectorHit
		var bucket string
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &bucket, &hit.Content, &hit.Score); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrVectorStoreUnavailable, err)
		}
		hit.Bucket = domain.ParseBucket(bucket)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", domain.ErrVectorStoreUnavailable, err)
	}

	return hits, nil
}

// Delete removes the given chunk IDs.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE chunk_id = ANY($1)", s.table)
	if _, err := s.pool.Exec(ctx, stmt, chunkIDs); err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Dimensions returns the configured vector dimension.
func (s *Store) Dimensions() int {
	return s.dims
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies connectivity. Used by the factory when inferring the
// backend from available credentials.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}
