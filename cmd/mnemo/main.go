// Command mnemo is the entry point for the knowledge retrieval and
// ingestion engine. It wires the configured adapters into the core
// services and hands control to the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meridian-labs/mnemo/internal/adapters/driven/ai"
	"github.com/meridian-labs/mnemo/internal/adapters/driven/config/file"
	"github.com/meridian-labs/mnemo/internal/adapters/driven/keyword/bm25"
	"github.com/meridian-labs/mnemo/internal/adapters/driven/storage/sqlite"
	"github.com/meridian-labs/mnemo/internal/adapters/driven/vector"
	"github.com/meridian-labs/mnemo/internal/adapters/driving/cli"
	"github.com/meridian-labs/mnemo/internal/chunker"
	"github.com/meridian-labs/mnemo/internal/core/services"
	"github.com/meridian-labs/mnemo/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// AI capabilities degrade to keyword-only operation when providers
	// are unreachable; the engine itself always starts.
	aiResult := ai.Init(ctx, cfg)
	defer aiResult.Close()
	startupWarnings := aiResult.Warnings
	for _, w := range aiResult.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	evidence, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening evidence store: %w", err)
	}
	defer evidence.Close()

	vectors, backend, err := vector.Open(ctx, vector.Config{
		Backend:        vector.Backend(cfg.Vector.Backend),
		Dimensions:     cfg.Embedding.Dimensions,
		PostgresDSN:    cfg.Vector.PostgresDSN,
		Table:          cfg.Vector.Table,
		MilvusAddress:  cfg.Vector.MilvusAddress,
		MilvusUsername: cfg.Vector.MilvusUsername,
		MilvusPassword: cfg.Vector.MilvusPassword,
		MilvusDatabase: cfg.Vector.MilvusDatabase,
		Collection:     cfg.Vector.Collection,
	})
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer vectors.Close()
	logger.Debug("Vector backend %s ready", backend)

	keywords := bm25.New(
		bm25.WithK1(cfg.Retrieval.BM25K1),
		bm25.WithB(cfg.Retrieval.BM25B),
	)
	defer keywords.Close()

	// The keyword index lives in memory and is rebuilt from the
	// evidence store on every start. The vector side only needs the
	// same treatment when the in-memory backend is selected; pgvector
	// and Milvus persist on their own.
	rehydrateVectors := vectors
	if backend != vector.BackendMemory {
		rehydrateVectors = nil
	}
	if err := services.Rehydrate(ctx, evidence, keywords, rehydrateVectors); err != nil {
		msg := fmt.Sprintf("rebuilding search indexes: %v", err)
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
		startupWarnings = append(startupWarnings, msg)
	}

	classifier := services.NewClassifierService(aiResult.LLMService)

	ck := chunker.New(
		chunker.WithChunkSize(cfg.Ingestion.ChunkSize),
		chunker.WithOverlap(cfg.Ingestion.ChunkOverlap),
	)

	ingestService := services.NewIngestionService(
		ck,
		aiResult.EmbeddingService,
		classifier,
		evidence,
		vectors,
		keywords,
		services.WithEmbedConcurrency(cfg.Ingestion.EmbedConcurrency),
		services.WithEmbedBatchSize(cfg.Ingestion.EmbedBatchSize),
	)

	retrieveService := services.NewRetrievalService(
		evidence,
		vectors,
		keywords,
		aiResult.EmbeddingService,
		services.WithRRFConstant(cfg.Retrieval.RRFConstant),
		services.WithDiversityThreshold(cfg.Retrieval.DiversityThreshold),
		services.WithScoreThreshold(cfg.Retrieval.ScoreThreshold),
	)

	cli.SetServices(retrieveService, ingestService, evidence)
	cli.SetStartupWarnings(startupWarnings)

	return cli.Execute()
}

// loadConfig reads the config file named by MNEMO_CONFIG, falling back
// to the default location. A missing file yields defaults.
func loadConfig() (file.Config, error) {
	path := os.Getenv("MNEMO_CONFIG")
	if path == "" {
		var err error
		path, err = file.DefaultPath()
		if err != nil {
			return file.Config{}, fmt.Errorf("resolving config path: %w", err)
		}
	}

	cfg, err := file.Load(path)
	if err != nil {
		return file.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
