// Package plaintext extracts text from files that already are text.
package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

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
	reader, err := e.storage.Open(ctx, e.dir, doc.Name)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%s is not valid utf-8 text", doc.Name)
	}
	return strings.TrimSpace(string(raw)), nil
}
