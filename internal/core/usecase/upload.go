package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

const uploadDir = "uploaded_files"

// IngestDocumentUseCase handles the upload side of the pipeline:
// storing the original file, registering its record with the file
// class resolved once at upload time, saving edited parsed content,
// and requesting asynchronous ingestion.
type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	source  ports.TextSource
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	source ports.TextSource,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *IngestDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		source:  source,
		queue:   queue,
		logger:  logger,
	}
}

// Upload stores the file and registers its record. The file class is
// resolved here from the extension and travels with the record; no
// later stage re-derives it.
func (u *IngestDocumentUseCase) Upload(ctx context.Context, filename, mimeType string, content io.Reader) (*domain.Document, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("empty filename"))
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !domain.SupportedExtension(ext) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload",
			fmt.Errorf("unsupported file extension %q", ext))
	}
	class := domain.ResolveFileClass(name)

	if err := u.storage.Save(ctx, uploadDir, name, content); err != nil {
		return nil, domain.WrapError(domain.ErrUpstream, "upload", fmt.Errorf("store file: %w", err))
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		Name:        name,
		Extension:   ext,
		Class:       class,
		MimeType:    mimeType,
		StoragePath: filepath.Join(uploadDir, name),
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	u.logger.Info("document uploaded",
		"name", name, "class", string(class), "mime_type", mimeType)
	return doc, nil
}

// SaveContent replaces the parsed text for a document, letting users
// correct extraction mistakes before indexing.
func (u *IngestDocumentUseCase) SaveContent(ctx context.Context, name, content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save content", errors.New("empty content"))
	}
	if _, err := u.repo.GetByName(ctx, name); err != nil {
		return err
	}
	if err := u.source.Store(ctx, name, content); err != nil {
		return domain.WrapError(domain.ErrUpstream, "save content", err)
	}
	u.logger.Info("parsed content saved", "name", name)
	return nil
}

// RequestIngest enqueues an ingestion request for the worker. The
// document must exist; the actual indexing happens asynchronously.
func (u *IngestDocumentUseCase) RequestIngest(ctx context.Context, name string) error {
	doc, err := u.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := u.queue.PublishIngestRequested(ctx, doc.Name); err != nil {
		return domain.WrapError(domain.ErrUpstream, "request ingest", err)
	}
	u.logger.Info("ingestion requested", "name", doc.Name)
	return nil
}
