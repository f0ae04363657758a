package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

// ProcessDocumentUseCase runs the full ingestion pipeline for one
// document: load parsed text, chunk, budget metadata, purge stale
// vectors, then drive both indexes. The dense and lexical paths are
// independent; a failure in one surfaces to the caller but never rolls
// back the other.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	source    ports.TextSource
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	lexical   ports.LexicalIndex
	cleaner   *staleChunkCleaner
	locks     *keyedMutex
	logger    *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	source ports.TextSource,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	lexical ports.LexicalIndex,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:      repo,
		source:    source,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
		lexical:   lexical,
		cleaner:   newStaleChunkCleaner(vectorDB, logger),
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByName(ctx context.Context, documentName string) (*domain.IngestOutcome, error) {
	// Serialize overlapping ingestions of the same name so one call's
	// cleanup never interleaves with another call's writes.
	unlock := uc.locks.Lock(documentName)
	defer unlock()

	doc, err := uc.repo.GetByName(ctx, documentName)
	if err != nil {
		return nil, err
	}

	// Tabular files are served by the tabular agent, never indexed.
	// Their parsed text is still saved for later retrieval.
	if doc.Class == domain.ClassTabular {
		return uc.skipTabular(ctx, doc)
	}

	if err := uc.repo.UpdateStatus(ctx, doc.Name, domain.StatusIngesting, ""); err != nil {
		return nil, fmt.Errorf("set status=ingesting: %w", err)
	}

	outcome, err := uc.ingest(ctx, doc)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, doc.Name, domain.StatusFailed, err.Error()); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return nil, err
	}

	if _, err := uc.repo.RecordIngestion(ctx, doc.Name, outcome.Chunks); err != nil {
		return nil, fmt.Errorf("record ingestion: %w", err)
	}
	return outcome, nil
}

func (uc *ProcessDocumentUseCase) ingest(ctx context.Context, doc *domain.Document) (*domain.IngestOutcome, error) {
	text, metadata, err := uc.loadText(ctx, doc)
	if err != nil {
		return nil, err
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	uc.logger.Info("document chunked", "document", doc.Name, "chunks", len(chunks))

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	// Cleanup must finish before any new write so a racing reader never
	// sees old and new chunks for the same source together.
	uc.cleaner.Cleanup(ctx, doc.Name)

	metas := uc.buildChunkMetadata(doc, chunks, metadata)

	// Sparse path first: fit one encoder over this document's chunks
	// and persist it as the per-document artifact. The chunk sparse
	// vectors ride along in the dense store so a single query can be
	// scored by both signals.
	encoder, lexicalErr := uc.lexical.Fit(ctx, doc.BaseName(), chunks)
	sparse := make([]domain.SparseVector, len(chunks))
	if lexicalErr == nil {
		for i, chunk := range chunks {
			sparse[i] = encoder.EncodeDocument(chunk)
		}
	} else {
		uc.logger.Warn("lexical encoder fit failed", "document", doc.Name, "error", lexicalErr)
	}

	denseErr := uc.vectorDB.UpsertChunks(ctx, doc, chunks, metas, vectors, sparse)

	switch {
	case denseErr != nil && lexicalErr != nil:
		return nil, domain.WrapError(domain.ErrUpstream, "write indexes", errors.Join(denseErr, lexicalErr))
	case denseErr != nil:
		return nil, domain.WrapError(domain.ErrPartialIngestion, "dense index write", denseErr)
	case lexicalErr != nil:
		return nil, domain.WrapError(domain.ErrPartialIngestion, "lexical index write", lexicalErr)
	}

	return &domain.IngestOutcome{
		Status:  "success",
		Message: fmt.Sprintf("document %s ingested with %d chunks", doc.Name, len(chunks)),
		Indexed: true,
		Chunks:  len(chunks),
	}, nil
}

// buildChunkMetadata produces the budgeted per-chunk metadata maps.
// Identity fields are stamped before budgeting; if a map still exceeds
// the store's hard ceiling afterwards it collapses to identity only.
func (uc *ProcessDocumentUseCase) buildChunkMetadata(doc *domain.Document, chunks []string, base map[string]any) []map[string]any {
	metas := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		meta := make(map[string]any, len(base)+4)
		for k, v := range base {
			meta[k] = v
		}
		meta["source"] = doc.Name
		meta["chunk_id"] = i
		meta["total_chunks"] = len(chunks)
		meta["chunk_size"] = len(chunk)

		meta = budgetMetadata(meta, metadataBudgetBytes)
		if metadataSize(meta) > metadataCeilingBytes {
			uc.logger.Warn("chunk metadata over hard ceiling after truncation",
				"document", doc.Name, "chunk", i)
			meta = emergencyMetadata(doc.Name, i, len(chunks))
		}
		metas[i] = meta
	}
	return metas
}

// loadText prefers previously parsed (or edited) content; a document
// without it is extracted from the stored source file and the result
// persisted for future loads.
func (uc *ProcessDocumentUseCase) loadText(ctx context.Context, doc *domain.Document) (string, map[string]any, error) {
	text, metadata, err := uc.source.Load(ctx, doc.Name)
	if err == nil {
		return text, metadata, nil
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return "", nil, fmt.Errorf("load parsed text: %w", err)
	}

	text, err = uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", nil, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	if err := uc.source.Store(ctx, doc.Name, text); err != nil {
		return "", nil, fmt.Errorf("store parsed text: %w", err)
	}
	return text, map[string]any{"file_name": doc.BaseName()}, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) skipTabular(ctx context.Context, doc *domain.Document) (*domain.IngestOutcome, error) {
	// Save the rendered text so /summary and content generation work
	// on tabular files too, even though they are never indexed.
	if ok, _ := uc.sourceHasText(ctx, doc.Name); !ok {
		text, err := uc.extractor.Extract(ctx, doc)
		if err != nil {
			uc.logger.Warn("tabular text extraction failed", "document", doc.Name, "error", err)
		} else if text != "" {
			if err := uc.source.Store(ctx, doc.Name, text); err != nil {
				uc.logger.Warn("tabular parsed text save failed", "document", doc.Name, "error", err)
			}
		}
	}

	if err := uc.repo.UpdateStatus(ctx, doc.Name, domain.StatusSkipped, ""); err != nil {
		return nil, fmt.Errorf("set status=skipped: %w", err)
	}
	return &domain.IngestOutcome{
		Status:  "skipped",
		Message: fmt.Sprintf("document %s is tabular and is served by the tabular agent; not indexed", doc.Name),
		Indexed: false,
	}, nil
}

func (uc *ProcessDocumentUseCase) sourceHasText(ctx context.Context, name string) (bool, error) {
	if _, _, err := uc.source.Load(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}
