package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations wrap an external capability (Ollama, OpenAI, or a
// compatible inference server). The retry decorator in
// adapters/driven/embedding adds batching, backoff and rate limiting on
// top of any implementation, so concrete adapters stay simple.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The result is
	// positionally aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// This must match the vector store configuration; a corpus never
	// mixes dimensions.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
