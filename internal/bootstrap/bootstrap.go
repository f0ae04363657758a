// Package bootstrap wires configuration into the concrete
// infrastructure and use cases shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/config"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/usecase"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/chunking"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/extractor"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/lexical"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/llm/ollama"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/queue/nats"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/repository/postgres"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/resilience"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/storage/localfs"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/tabular"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  *usecase.IngestDocumentUseCase
	ProcessUC *usecase.ProcessDocumentUseCase
	SearchUC  *usecase.SearchUseCase
	ContentUC *usecase.ContentUseCase
	DeleteUC  *usecase.DeleteDocumentUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	source := localfs.NewTextSource(storage)

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).WithExecutor(executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	lexicalIndex := lexical.NewStore(storage, logger)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractors := extractor.NewRegistry(storage)
	tabularAgent := tabular.NewAgent(storage, generator, logger)
	classifier := usecase.NewHeuristicClassifier()

	retriever := usecase.NewHybridRetriever(embedder, vectorDB, lexicalIndex, cfg.SearchTopK, cfg.HybridAlpha)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, source, queue, logger)
	processUC := usecase.NewProcessDocumentUseCase(repo, source, extractors, chunker, embedder, vectorDB, lexicalIndex, logger)
	searchUC := usecase.NewSearchUseCase(repo, retriever, generator, tabularAgent, classifier, logger)
	contentUC := usecase.NewContentUseCase(repo, source, generator, logger)
	deleteUC := usecase.NewDeleteDocumentUseCase(repo, storage, source, lexicalIndex, vectorDB, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Repo:  repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		SearchUC:  searchUC,
		ContentUC: contentUC,
		DeleteUC:  deleteUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
