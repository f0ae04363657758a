package usecase

import (
	"context"
	"log/slog"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

// maxStaleChunkProbe bounds the ID-range sweep per name variant. Any
// realistic prior ingestion fits well inside it.
const maxStaleChunkProbe = 64

// staleChunkCleaner purges every vector a prior ingestion of the same
// logical document may have left behind, so at most one live chunk set
// per canonical name survives a write. Cleanup is best-effort: a
// failing delete is logged and never aborts ingestion.
type staleChunkCleaner struct {
	vectorDB ports.VectorStore
	logger   *slog.Logger
}

func newStaleChunkCleaner(vectorDB ports.VectorStore, logger *slog.Logger) *staleChunkCleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &staleChunkCleaner{vectorDB: vectorDB, logger: logger}
}

// Cleanup deletes by source filter for every historical spelling of the
// document name, then sweeps a bounded range of deterministic chunk
// identifiers under each spelling. "Not found" is success.
func (c *staleChunkCleaner) Cleanup(ctx context.Context, documentName string) {
	variants := domain.SourceNameVariants(documentName)

	for _, variant := range variants {
		if err := c.vectorDB.DeleteBySource(ctx, variant); err != nil {
			c.logger.Warn("stale vector cleanup failed",
				"document", documentName,
				"variant", variant,
				"error", err,
			)
		}
	}

	// Filter deletes can miss records written before the source field
	// was populated consistently; the ID sweep catches those.
	keys := make([]string, 0, maxStaleChunkProbe)
	for i := 0; i < maxStaleChunkProbe; i++ {
		keys = append(keys, domain.ChunkKey(documentName, i))
	}
	if err := c.vectorDB.DeleteByChunkKeys(ctx, keys); err != nil {
		c.logger.Warn("stale chunk id cleanup failed",
			"document", documentName,
			"error", err,
		)
	}
}
