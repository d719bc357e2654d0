package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// Ensure Retrying implements the interface.
var _ driven.EmbeddingService = (*Retrying)(nil)

// Default decorator values.
const (
	DefaultMaxBatch    = 64
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultRatePerSec  = 10
)

// Retrying decorates an embedding service with batch splitting, bounded
// exponential backoff, request rate limiting, and a corpus dimension
// guard. Every provider adapter is wrapped in one of these before the
// engine sees it.
type Retrying struct {
	inner       driven.EmbeddingService
	maxBatch    int
	maxAttempts int
	baseDelay   time.Duration
	limiter     *rate.Limiter
}

// RetryOption configures the decorator.
type RetryOption func(*Retrying)

// WithMaxBatch sets the maximum texts per provider request.
func WithMaxBatch(n int) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.maxBatch = n
		}
	}
}

// WithMaxAttempts sets the attempt bound per batch.
func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the first backoff delay; each retry doubles it.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(r *Retrying) {
		if d > 0 {
			r.baseDelay = d
		}
	}
}

// WithRateLimit caps provider requests per second.
func WithRateLimit(perSec float64) RetryOption {
	return func(r *Retrying) {
		if perSec > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// NewRetrying wraps an embedding service.
func NewRetrying(inner driven.EmbeddingService, opts ...RetryOption) *Retrying {
	r := &Retrying{
		inner:       inner,
		maxBatch:    DefaultMaxBatch,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRatePerSec), 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Embed generates a single embedding with retries.
func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := r.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: provider returned no embedding", domain.ErrEmbeddingUnavailable)
	}
	return vectors[0], nil
}

// EmbedBatch splits the input into provider-sized batches and embeds
// each with bounded retries. The result is positionally aligned with
// the input. Exhausted retries surface domain.ErrEmbeddingUnavailable;
// the caller decides whether to abort ingestion or degrade retrieval to
// keyword-only.
func (r *Retrying) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += r.maxBatch {
		end := start + r.maxBatch
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := r.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	if dims := r.inner.Dimensions(); dims > 0 {
		for i, vec := range out {
			if len(vec) != dims {
				return nil, fmt.Errorf("%w: text %d embedded to %d dimensions, model %s expects %d",
					domain.ErrDimensionMismatch, i, len(vec), r.inner.ModelName(), dims)
			}
		}
	}

	return out, nil
}

// embedWithRetry runs one batch through the attempt loop.
func (r *Retrying) embedWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay << (attempt - 1)
			logger.Debug("Embedding retry %d/%d after %v: %v", attempt, r.maxAttempts-1, delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}

		vectors, err := r.inner.EmbedBatch(ctx, batch)
		if err == nil {
			return vectors, nil
		}

		lastErr = err
		if !Retryable(err) {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, lastErr)
}

// Dimensions returns the wrapped service's vector size.
func (r *Retrying) Dimensions() int {
	return r.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (r *Retrying) ModelName() string {
	return r.inner.ModelName()
}

// Ping delegates to the wrapped service.
func (r *Retrying) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close delegates to the wrapped service.
func (r *Retrying) Close() error {
	return r.inner.Close()
}
