package services

import (
	"context"
	"fmt"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// Rehydrate rebuilds volatile indexes from the evidence store so that
// keyword and memory-backed vector search survive process restarts.
// The keyword index always needs it; pass vectors only when the
// selected vector backend does not persist (the in-memory one).
// Chunks without a stored embedding are keyword-indexed only.
func Rehydrate(
	ctx context.Context,
	evidence driven.EvidenceStore,
	keywords driven.KeywordIndex,
	vectors driven.VectorStore,
) error {
	if evidence == nil || (keywords == nil && vectors == nil) {
		return nil
	}

	owners, err := evidence.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("listing owners: %w", err)
	}

	logger.Section("Rehydration")

	// Legacy empty and sentinel guest values collapse into one
	// partition; visit each canonical identity once.
	seen := make(map[string]struct{}, len(owners))
	total := 0
	for _, raw := range owners {
		identity := domain.NormalizeIdentity(raw)
		if _, ok := seen[identity.String()]; ok {
			continue
		}
		seen[identity.String()] = struct{}{}

		n, err := rehydratePartition(ctx, evidence, keywords, vectors, identity)
		if err != nil {
			return err
		}
		total += n
	}

	logger.Info("Rehydrated %d chunks across %d partitions", total, len(seen))
	return nil
}

func rehydratePartition(
	ctx context.Context,
	evidence driven.EvidenceStore,
	keywords driven.KeywordIndex,
	vectors driven.VectorStore,
	identity domain.Identity,
) (int, error) {
	docs, err := evidence.ListDocuments(ctx, identity.Filter())
	if err != nil {
		return 0, fmt.Errorf("listing documents for %s: %w", identity, err)
	}

	indexed := 0
	for _, doc := range docs {
		chunks, err := evidence.GetChunks(ctx, doc.ID)
		if err != nil {
			return indexed, fmt.Errorf("loading chunks for %s: %w", doc.ID, err)
		}

		var records []driven.VectorRecord
		for _, chunk := range chunks {
			if keywords != nil {
				if err := keywords.Index(ctx, chunk, identity); err != nil {
					return indexed, fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
				}
			}
			if vectors != nil && len(chunk.Embedding) > 0 {
				records = append(records, driven.VectorRecord{
					ChunkID:    chunk.ID,
					DocumentID: doc.ID,
					Vector:     chunk.Embedding,
					Owner:      identity.String(),
					Bucket:     doc.Bucket,
					Content:    chunk.Content,
				})
			}
			indexed++
		}

		if len(records) > 0 {
			if err := vectors.Upsert(ctx, records); err != nil {
				return indexed, fmt.Errorf("upserting vectors for %s: %w", doc.ID, err)
			}
		}
	}

	return indexed, nil
}
