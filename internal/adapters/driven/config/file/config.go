// Package file loads engine configuration from a TOML file.
//
// Configuration is read once at startup into a typed Config; there is
// no hot reload. Credentials can be supplied or overridden through
// environment variables so they never have to live in the file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// Environment variable overrides for credentials.
const (
	EnvPostgresDSN    = "MNEMO_POSTGRES_DSN"
	EnvMilvusAddress  = "MNEMO_MILVUS_ADDRESS"
	EnvMilvusUsername = "MNEMO_MILVUS_USERNAME"
	EnvMilvusPassword = "MNEMO_MILVUS_PASSWORD"
	EnvOpenAIKey      = "MNEMO_OPENAI_API_KEY"
)

// Config is the full engine configuration.
type Config struct {
	// DataDir is where the evidence database lives. Empty means
	// ~/.mnemo/data.
	DataDir string `toml:"data_dir"`

	Vector    VectorConfig    `toml:"vector"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Ingestion IngestionConfig `toml:"ingestion"`
}

// VectorConfig selects and configures the vector store backend.
type VectorConfig struct {
	// Backend is "memory", "pgvector" or "milvus". Empty means infer
	// from available credentials.
	Backend string `toml:"backend"`

	PostgresDSN string `toml:"postgres_dsn"`
	Table       string `toml:"table"`

	MilvusAddress  string `toml:"milvus_address"`
	MilvusUsername string `toml:"milvus_username"`
	MilvusPassword string `toml:"milvus_password"`
	MilvusDatabase string `toml:"milvus_database"`
	Collection     string `toml:"collection"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai". Empty disables embeddings and
	// the engine runs keyword-only.
	Provider string `toml:"provider"`

	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig configures the generative provider used for classification.
type LLMConfig struct {
	// Provider is "ollama" or "openai". Empty disables classification.
	Provider string `toml:"provider"`

	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// RetrievalConfig holds ranking tunables.
type RetrievalConfig struct {
	TopK               int     `toml:"top_k"`
	MaxTokens          int     `toml:"max_tokens"`
	ScoreThreshold     float64 `toml:"score_threshold"`
	RRFConstant        int     `toml:"rrf_constant"`
	DiversityThreshold float64 `toml:"diversity_threshold"`
	BM25K1             float64 `toml:"bm25_k1"`
	BM25B              float64 `toml:"bm25_b"`
}

// IngestionConfig holds ingestion tunables.
type IngestionConfig struct {
	ChunkSize        int `toml:"chunk_size"`
	ChunkOverlap     int `toml:"chunk_overlap"`
	EmbedConcurrency int `toml:"embed_concurrency"`
	EmbedBatchSize   int `toml:"embed_batch_size"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Retrieval: RetrievalConfig{
			TopK:               domain.DefaultTopK,
			MaxTokens:          domain.DefaultMaxTokens,
			ScoreThreshold:     domain.DefaultThreshold,
			RRFConstant:        domain.DefaultRRFConst,
			DiversityThreshold: domain.DefaultDiversity,
			BM25K1:             domain.DefaultBM25K1,
			BM25B:              domain.DefaultBM25B,
		},
		Ingestion: IngestionConfig{
			EmbedConcurrency: 4,
			EmbedBatchSize:   32,
		},
	}
}

// DefaultPath returns the standard config file location,
// ~/.mnemo/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".mnemo", "config.toml"), nil
}

// Load reads configuration from the given path. A missing file is not
// an error: defaults apply. Environment variables override credential
// fields afterwards either way.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnvOverrides lets credentials come from the environment.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		cfg.Vector.PostgresDSN = v
	}
	if v := os.Getenv(EnvMilvusAddress); v != "" {
		cfg.Vector.MilvusAddress = v
	}
	if v := os.Getenv(EnvMilvusUsername); v != "" {
		cfg.Vector.MilvusUsername = v
	}
	if v := os.Getenv(EnvMilvusPassword); v != "" {
		cfg.Vector.MilvusPassword = v
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	switch c.Vector.Backend {
	case "", "memory", "pgvector", "milvus":
	default:
		return fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, c.Vector.Backend)
	}

	switch c.Embedding.Provider {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, c.Embedding.Provider)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		return fmt.Errorf("%w: openai embedding provider requires an API key", domain.ErrInvalidInput)
	}

	switch c.LLM.Provider {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown llm provider %q", domain.ErrInvalidInput, c.LLM.Provider)
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("%w: openai llm provider requires an API key", domain.ErrInvalidInput)
	}

	if c.Retrieval.TopK < 0 || c.Retrieval.MaxTokens < 0 {
		return fmt.Errorf("%w: retrieval limits must be non-negative", domain.ErrInvalidInput)
	}
	if c.Retrieval.DiversityThreshold < 0 || c.Retrieval.DiversityThreshold > 1 {
		return fmt.Errorf("%w: diversity threshold must be within [0, 1]", domain.ErrInvalidInput)
	}
	if c.Ingestion.EmbedConcurrency < 0 {
		return fmt.Errorf("%w: embed concurrency must be non-negative", domain.ErrInvalidInput)
	}
	if c.Ingestion.EmbedBatchSize < 0 {
		return fmt.Errorf("%w: embed batch size must be non-negative", domain.ErrInvalidInput)
	}

	return nil
}
