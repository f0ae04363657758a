// Package extractor dispatches text extraction to the right format
// handler based on the document's extension.
package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/extractor/docx"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/extractor/pdfx"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/extractor/plaintext"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/infrastructure/tabular"
)

const sourceDir = "uploaded_files"

// Registry picks the extractor for a document. Tabular files render
// to a text table so their parsed content can feed summaries even
// though they are never indexed.
type Registry struct {
	storage    ports.ObjectStorage
	extractors map[string]ports.TextExtractor
}

func NewRegistry(storage ports.ObjectStorage) *Registry {
	plain := plaintext.NewExtractor(storage, sourceDir)
	return &Registry{
		storage: storage,
		extractors: map[string]ports.TextExtractor{
			".txt":  plain,
			".md":   plain,
			".pdf":  pdfx.NewExtractor(storage, sourceDir),
			".docx": docx.NewExtractor(storage, sourceDir),
		},
	}
}

func (r *Registry) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if doc.Class == domain.ClassTabular {
		return r.extractTabular(ctx, doc)
	}

	ext := strings.ToLower(filepath.Ext(doc.Name))
	impl, ok := r.extractors[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract",
			fmt.Errorf("no extractor for extension %q", ext))
	}
	return impl.Extract(ctx, doc)
}

func (r *Registry) extractTabular(ctx context.Context, doc *domain.Document) (string, error) {
	rc, err := r.storage.Open(ctx, sourceDir, doc.Name)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	dataset, err := tabular.Parse(raw, doc.Extension)
	if err != nil {
		return "", fmt.Errorf("parse tabular %s: %w", doc.Name, err)
	}
	return dataset.Render(0), nil
}
