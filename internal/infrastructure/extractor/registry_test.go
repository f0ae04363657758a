package extractor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

type memStorage struct {
	files map[string][]byte
}

func (m *memStorage) put(dir, name string, raw []byte) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[dir+"/"+name] = raw
}

func (m *memStorage) Save(_ context.Context, dir, name string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.put(dir, name, raw)
	return nil
}

func (m *memStorage) Open(_ context.Context, dir, name string) (io.ReadCloser, error) {
	raw, ok := m.files[dir+"/"+name]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open", errors.New(name))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memStorage) Delete(context.Context, string, string) error   { return nil }
func (m *memStorage) List(context.Context, string) ([]string, error) { return nil, nil }
func (m *memStorage) Exists(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestExtractPlainText(t *testing.T) {
	storage := &memStorage{}
	storage.put("uploaded_files", "notes.txt", []byte("  plain body  "))
	registry := NewRegistry(storage)

	doc := &domain.Document{Name: "notes.txt", Extension: ".txt", Class: domain.ClassDocument}
	text, err := registry.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "plain body" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractMarkdown(t *testing.T) {
	storage := &memStorage{}
	storage.put("uploaded_files", "readme.md", []byte("# Title\n\nbody"))
	registry := NewRegistry(storage)

	doc := &domain.Document{Name: "readme.md", Extension: ".md", Class: domain.ClassDocument}
	text, err := registry.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "# Title") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTabularRendersTable(t *testing.T) {
	storage := &memStorage{}
	storage.put("uploaded_files", "sales.csv", []byte("region,sales\nnorth,100\n"))
	registry := NewRegistry(storage)

	doc := &domain.Document{Name: "sales.csv", Extension: ".csv", Class: domain.ClassTabular}
	text, err := registry.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "region | sales") || !strings.Contains(text, "north | 100") {
		t.Fatalf("unexpected rendering: %q", text)
	}
}

func TestExtractUnknownExtension(t *testing.T) {
	registry := NewRegistry(&memStorage{})

	doc := &domain.Document{Name: "blob.bin", Extension: ".bin", Class: domain.ClassDocument}
	_, err := registry.Extract(context.Background(), doc)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	registry := NewRegistry(&memStorage{})

	doc := &domain.Document{Name: "ghost.txt", Extension: ".txt", Class: domain.ClassDocument}
	if _, err := registry.Extract(context.Background(), doc); err == nil {
		t.Fatal("expected error for missing file")
	}
}
