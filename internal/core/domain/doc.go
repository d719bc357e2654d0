// Package domain contains the core business entities and rules for the
// Mnemo knowledge engine: documents, chunks, buckets, owner identities,
// and the retrieval contracts shared by all adapters.
//
// The domain layer has no dependencies on infrastructure. Adapters and
// services depend on it, never the reverse.
package domain
