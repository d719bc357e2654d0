// Package ai constructs the embedding and LLM services from
// configuration. Initialisation never fails hard on an unreachable
// provider: the engine degrades to keyword-only retrieval and reports
// what happened through warnings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-labs/mnemo/internal/adapters/driven/config/file"
	"github.com/meridian-labs/mnemo/internal/adapters/driven/embedding"
	ollamaembed "github.com/meridian-labs/mnemo/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/meridian-labs/mnemo/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/meridian-labs/mnemo/internal/adapters/driven/llm/ollama"
	openaillm "github.com/meridian-labs/mnemo/internal/adapters/driven/llm/openai"
	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// pingTimeout is the maximum time to wait for provider connectivity checks.
const pingTimeout = 5 * time.Second

// InitResult contains the outcome of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService

	// Warnings lists non-fatal issues that caused a capability to be
	// dropped.
	Warnings []string

	// KeywordOnly is true when no embedding capability is available and
	// retrieval will rely on the keyword index alone.
	KeywordOnly bool
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedding and LLM services the configuration asks
// for, validating connectivity with a bounded ping. Unreachable
// providers become warnings, not errors.
func Init(ctx context.Context, cfg file.Config) *InitResult {
	result := &InitResult{}

	embedder, err := newEmbeddingService(cfg.Embedding)
	if err != nil {
		logger.Warn("Embedding service unavailable: %v", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("embedding: %v", err))
	} else if embedder != nil {
		if err := ping(ctx, embedder.Ping); err != nil {
			logger.Warn("Embedding service unreachable: %v", err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("embedding: %s unreachable (%v)", cfg.Embedding.Provider, err))
			embedder.Close()
		} else {
			logger.Info("Embedding service ready: %s (%d dimensions)",
				embedder.ModelName(), embedder.Dimensions())
			result.EmbeddingService = embedding.NewRetrying(embedder)
		}
	}

	llm, err := newLLMService(cfg.LLM)
	if err != nil {
		logger.Warn("LLM service unavailable: %v", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("llm: %v", err))
	} else if llm != nil {
		if err := ping(ctx, llm.Ping); err != nil {
			logger.Warn("LLM service unreachable: %v", err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("llm: %s unreachable (%v)", cfg.LLM.Provider, err))
			llm.Close()
		} else {
			logger.Info("LLM service ready: %s", llm.ModelName())
			result.LLMService = llm
		}
	}

	result.KeywordOnly = result.EmbeddingService == nil
	return result
}

// ping runs a connectivity check with the factory's bounded timeout.
func ping(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return check(ctx)
}

// newEmbeddingService builds the configured embedding adapter. A nil
// service with nil error means embeddings are not configured.
func newEmbeddingService(cfg file.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "":
		return nil, nil

	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

// newLLMService builds the configured LLM adapter. A nil service with
// nil error means classification is not configured.
func newLLMService(cfg file.LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "":
		return nil, nil

	case "ollama":
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case "openai":
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}
