// Package vector selects and constructs the vector store backend.
// Selection is a pure function of configuration with a deterministic
// fallback order: explicit backend, then whatever credentials are
// available (PostgreSQL before Milvus), then in-memory. Call sites
// never branch on the backend type; they hold the port interface.
package vector

import (
	"context"
	"fmt"

	"github.com/meridian-labs/mnemo/internal/adapters/driven/vector/memory"
	"github.com/meridian-labs/mnemo/internal/adapters/driven/vector/milvus"
	"github.com/meridian-labs/mnemo/internal/adapters/driven/vector/pgvector"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// Backend identifies a vector store implementation.
type Backend string

// Available backends.
const (
	// BackendMemory is the in-memory brute-force store, the default for
	// development and testing.
	BackendMemory Backend = "memory"

	// BackendPgvector is PostgreSQL with the pgvector extension, the
	// production default.
	BackendPgvector Backend = "pgvector"

	// BackendMilvus is a managed Milvus deployment for horizontal scale.
	BackendMilvus Backend = "milvus"
)

// IsValid returns true if the backend is recognised.
func (b Backend) IsValid() bool {
	switch b {
	case BackendMemory, BackendPgvector, BackendMilvus:
		return true
	default:
		return false
	}
}

// Config holds everything needed to construct any backend.
type Config struct {
	// Backend explicitly selects an implementation. Empty means infer
	// from available credentials.
	Backend Backend

	// Dimensions is the embedding vector size, constant per corpus.
	Dimensions int

	// PostgresDSN enables the pgvector backend when set.
	PostgresDSN string

	// Table is the pgvector table name (optional).
	Table string

	// MilvusAddress enables the Milvus backend when set.
	MilvusAddress  string
	MilvusUsername string
	MilvusPassword string
	MilvusDatabase string
	Collection     string
}

// Resolve determines which backend the configuration selects, without
// connecting to anything.
func Resolve(cfg Config) (Backend, error) {
	if cfg.Backend != "" {
		if !cfg.Backend.IsValid() {
			return "", fmt.Errorf("unknown vector backend %q", cfg.Backend)
		}
		return cfg.Backend, nil
	}
	if cfg.PostgresDSN != "" {
		return BackendPgvector, nil
	}
	if cfg.MilvusAddress != "" {
		return BackendMilvus, nil
	}
	return BackendMemory, nil
}

// Open resolves and constructs the vector store.
func Open(ctx context.Context, cfg Config) (driven.VectorStore, Backend, error) {
	backend, err := Resolve(cfg)
	if err != nil {
		return nil, "", err
	}

	logger.Info("Vector backend: %s", backend)

	switch backend {
	case BackendPgvector:
		store, err := pgvector.New(ctx, pgvector.Config{
			ConnString: cfg.PostgresDSN,
			Table:      cfg.Table,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, "", fmt.Errorf("open pgvector backend: %w", err)
		}
		return store, backend, nil

	case BackendMilvus:
		store, err := milvus.New(ctx, milvus.Config{
			Address:    cfg.MilvusAddress,
			Username:   cfg.MilvusUsername,
			Password:   cfg.MilvusPassword,
			Database:   cfg.MilvusDatabase,
			Collection: cfg.Collection,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, "", fmt.Errorf("open milvus backend: %w", err)
		}
		return store, backend, nil

	default:
		return memory.New(cfg.Dimensions), BackendMemory, nil
	}
}
