package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExplicitBackend(t *testing.T) {
	backend, err := Resolve(Config{Backend: BackendMilvus})
	require.NoError(t, err)
	assert.Equal(t, BackendMilvus, backend)

	// Explicit selection wins over available credentials.
	backend, err = Resolve(Config{Backend: BackendMemory, PostgresDSN: "postgres://x"})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, backend)
}

func TestResolveInfersFromCredentials(t *testing.T) {
	backend, err := Resolve(Config{PostgresDSN: "postgres://x"})
	require.NoError(t, err)
	assert.Equal(t, BackendPgvector, backend)

	backend, err = Resolve(Config{MilvusAddress: "localhost:19530"})
	require.NoError(t, err)
	assert.Equal(t, BackendMilvus, backend)

	// PostgreSQL wins when both are configured.
	backend, err = Resolve(Config{PostgresDSN: "postgres://x", MilvusAddress: "localhost:19530"})
	require.NoError(t, err)
	assert.Equal(t, BackendPgvector, backend)
}

func TestResolveDefaultsToMemory(t *testing.T) {
	backend, err := Resolve(Config{})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, backend)
}

func TestResolveRejectsUnknownBackend(t *testing.T) {
	_, err := Resolve(Config{Backend: "hnswlib"})
	assert.Error(t, err)
}

func TestOpenMemory(t *testing.T) {
	store, backend, err := Open(context.Background(), Config{Dimensions: 8})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, BackendMemory, backend)
	assert.Equal(t, 8, store.Dimensions())
}
