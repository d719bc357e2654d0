// Package sqlite provides a SQLite-backed evidence store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Documents and their chunks
// are persisted in a single database file, partitioned by owner.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// Chunk embeddings are stored as little-endian float32 blobs alongside the
// chunk text, so a vector backend can be rebuilt from evidence alone.
//
// # Data Location
//
// By default, the database is stored at ~/.mnemo/data/evidence.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
