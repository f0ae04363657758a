// Package pdfx extracts plain text from PDF source files.
package pdfx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
	dir     string
}

func NewExtractor(storage ports.ObjectStorage, dir string) *Extractor {
	return &Extractor{storage: storage, dir: dir}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	rc, err := e.storage.Open(ctx, e.dir, doc.Name)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf %s: %w", doc.Name, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", doc.Name, err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", doc.Name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
