package localfs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

const parsedDir = "parsed_files"

// TextSource serves the parsed markdown rendition of each document:
// written once at extraction time, replaceable through content edits.
// The file is named after the document's base name so every extension
// variant of a name shares one parsed text.
type TextSource struct {
	storage ports.ObjectStorage
}

func NewTextSource(storage ports.ObjectStorage) *TextSource {
	return &TextSource{storage: storage}
}

func parsedName(documentName string) string {
	return domain.BaseName(documentName) + ".md"
}

func (t *TextSource) Load(ctx context.Context, documentName string) (string, map[string]any, error) {
	rc, err := t.storage.Open(ctx, parsedDir, parsedName(documentName))
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("open parsed text: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("read parsed text: %w", err)
	}
	return string(raw), map[string]any{"file_name": domain.BaseName(documentName)}, nil
}

func (t *TextSource) Delete(ctx context.Context, documentName string) error {
	err := t.storage.Delete(ctx, parsedDir, parsedName(documentName))
	if err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return fmt.Errorf("delete parsed text: %w", err)
	}
	return nil
}

func (t *TextSource) Store(ctx context.Context, documentName, text string) error {
	if err := t.storage.Save(ctx, parsedDir, parsedName(documentName), strings.NewReader(text)); err != nil {
		return fmt.Errorf("save parsed text: %w", err)
	}
	return nil
}
