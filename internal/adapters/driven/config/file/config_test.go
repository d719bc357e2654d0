package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultTopK, cfg.Retrieval.TopK)
	assert.Equal(t, domain.DefaultMaxTokens, cfg.Retrieval.MaxTokens)
	assert.Equal(t, domain.DefaultRRFConst, cfg.Retrieval.RRFConstant)
	assert.InDelta(t, domain.DefaultDiversity, cfg.Retrieval.DiversityThreshold, 0.001)
	assert.Equal(t, 4, cfg.Ingestion.EmbedConcurrency)
	assert.Equal(t, 32, cfg.Ingestion.EmbedBatchSize)
	assert.Empty(t, cfg.Vector.Backend)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/tmp/mnemo-test"

[vector]
backend = "pgvector"
postgres_dsn = "postgres://localhost/mnemo"

[embedding]
provider = "ollama"
model = "nomic-embed-text"
dimensions = 768

[llm]
provider = "ollama"
model = "llama3.2"

[retrieval]
top_k = 10
max_tokens = 4000
diversity_threshold = 0.8

[ingestion]
chunk_size = 800
embed_concurrency = 8
embed_batch_size = 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/mnemo-test", cfg.DataDir)
	assert.Equal(t, "pgvector", cfg.Vector.Backend)
	assert.Equal(t, "postgres://localhost/mnemo", cfg.Vector.PostgresDSN)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 4000, cfg.Retrieval.MaxTokens)
	assert.InDelta(t, 0.8, cfg.Retrieval.DiversityThreshold, 0.001)
	assert.Equal(t, 800, cfg.Ingestion.ChunkSize)
	assert.Equal(t, 8, cfg.Ingestion.EmbedConcurrency)
	assert.Equal(t, 16, cfg.Ingestion.EmbedBatchSize)

	// Unset fields keep their defaults.
	assert.Equal(t, domain.DefaultRRFConst, cfg.Retrieval.RRFConstant)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPostgresDSN, "postgres://secret@db/mnemo")
	t.Setenv(EnvOpenAIKey, "sk-test")

	path := writeConfig(t, `
[embedding]
provider = "openai"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://secret@db/mnemo", cfg.Vector.PostgresDSN)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoad_EnvDoesNotClobberExplicitKey(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "sk-env")

	path := writeConfig(t, `
[embedding]
provider = "openai"
api_key = "sk-file"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.Embedding.APIKey)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, "not [valid toml")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(_ *Config) {}, false},
		{"unknown backend", func(c *Config) { c.Vector.Backend = "chroma" }, true},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "bedrock" }, true},
		{"openai embedding without key", func(c *Config) { c.Embedding.Provider = "openai" }, true},
		{"openai llm without key", func(c *Config) { c.LLM.Provider = "openai" }, true},
		{"negative topK", func(c *Config) { c.Retrieval.TopK = -1 }, true},
		{"diversity above one", func(c *Config) { c.Retrieval.DiversityThreshold = 1.5 }, true},
		{"ollama providers valid", func(c *Config) {
			c.Embedding.Provider = "ollama"
			c.LLM.Provider = "ollama"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
