package usecase

import (
	"context"
	"log/slog"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

// DeleteDocumentUseCase removes a document and everything derived from
// it: indexed vectors, the lexical artifact, the parsed text and the
// stored source file. Artifact removal is best-effort so a half-deleted
// document can be deleted again; only the registry row is
// authoritative.
type DeleteDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	source  ports.TextSource
	lexical ports.LexicalIndex
	cleaner *staleChunkCleaner
	logger  *slog.Logger
}

func NewDeleteDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	source ports.TextSource,
	lexical ports.LexicalIndex,
	vectorDB ports.VectorStore,
	logger *slog.Logger,
) *DeleteDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteDocumentUseCase{
		repo:    repo,
		storage: storage,
		source:  source,
		lexical: lexical,
		cleaner: newStaleChunkCleaner(vectorDB, logger),
		logger:  logger,
	}
}

func (u *DeleteDocumentUseCase) Delete(ctx context.Context, documentName string) error {
	doc, err := u.repo.GetByName(ctx, documentName)
	if err != nil {
		return err
	}

	u.cleaner.Cleanup(ctx, doc.Name)

	if err := u.lexical.Remove(ctx, domain.BaseName(doc.Name)); err != nil {
		u.logger.Warn("removing lexical artifact failed", "document", doc.Name, "error", err)
	}
	if err := u.source.Delete(ctx, doc.Name); err != nil {
		u.logger.Warn("removing parsed text failed", "document", doc.Name, "error", err)
	}
	if err := u.storage.Delete(ctx, uploadDir, doc.Name); err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		u.logger.Warn("removing stored file failed", "document", doc.Name, "error", err)
	}

	if err := u.repo.Delete(ctx, doc.Name); err != nil {
		return err
	}
	u.logger.Info("document deleted", "document", doc.Name)
	return nil
}
