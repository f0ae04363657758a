package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

type storageFake struct {
	saved   map[string][]byte
	saveErr error
	deleted []string
}

func (f *storageFake) Save(_ context.Context, dir, name string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[dir+"/"+name] = raw
	return nil
}

func (f *storageFake) Open(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *storageFake) Delete(_ context.Context, dir, name string) error {
	f.deleted = append(f.deleted, dir+"/"+name)
	return nil
}
func (f *storageFake) List(context.Context, string) ([]string, error) {
	return nil, nil
}
func (f *storageFake) Exists(context.Context, string, string) (bool, error) { return false, nil }

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishIngestRequested(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, name)
	return nil
}

func (f *queueFake) SubscribeIngestRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type uploadRepoFake struct {
	searchRepoFake
	created []*domain.Document
}

func (f *uploadRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.created = append(f.created, doc)
	return nil
}

func TestUploadResolvesClassOnce(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{}}}
	storage := &storageFake{}
	uc := NewIngestDocumentUseCase(repo, storage, &textSourceFake{}, &queueFake{}, nil)

	doc, err := uc.Upload(context.Background(), "sales.CSV", "text/csv", strings.NewReader("a,b\n1,2"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Class != domain.ClassTabular {
		t.Fatalf("expected tabular class, got %s", doc.Class)
	}
	if doc.Extension != ".csv" {
		t.Fatalf("expected lowercased extension, got %s", doc.Extension)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", doc.Status)
	}
	if _, ok := storage.saved["uploaded_files/sales.CSV"]; !ok {
		t.Fatalf("file not stored: %v", storage.saved)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one registry record, got %d", len(repo.created))
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{}}}
	uc := NewIngestDocumentUseCase(repo, &storageFake{}, &textSourceFake{}, &queueFake{}, nil)

	_, err := uc.Upload(context.Background(), "malware.exe", "application/octet-stream", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("rejected upload must not create a record")
	}
}

func TestUploadRejectsEmptyFilename(t *testing.T) {
	uc := NewIngestDocumentUseCase(
		&uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{}}},
		&storageFake{}, &textSourceFake{}, &queueFake{}, nil,
	)

	_, err := uc.Upload(context.Background(), "   ", "text/plain", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestUploadStripsPathComponents(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{}}}
	uc := NewIngestDocumentUseCase(repo, &storageFake{}, &textSourceFake{}, &queueFake{}, nil)

	doc, err := uc.Upload(context.Background(), "../../etc/report.pdf", "application/pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Name != "report.pdf" {
		t.Fatalf("expected traversal-safe name, got %q", doc.Name)
	}
}

func TestSaveContentRequiresExistingDocument(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{}}}
	uc := NewIngestDocumentUseCase(repo, &storageFake{}, &textSourceFake{}, &queueFake{}, nil)

	err := uc.SaveContent(context.Background(), "ghost.pdf", "edited text")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestSaveContentStoresEditedText(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{
		"report.pdf": docRecord("report.pdf", domain.ClassDocument),
	}}}
	source := &textSourceFake{}
	uc := NewIngestDocumentUseCase(repo, &storageFake{}, source, &queueFake{}, nil)

	if err := uc.SaveContent(context.Background(), "report.pdf", "corrected text"); err != nil {
		t.Fatalf("SaveContent() error = %v", err)
	}
	if source.stored["report.pdf"] != "corrected text" {
		t.Fatalf("edited text not stored: %v", source.stored)
	}
}

func TestRequestIngestPublishes(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{
		"report.pdf": docRecord("report.pdf", domain.ClassDocument),
	}}}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, &storageFake{}, &textSourceFake{}, queue, nil)

	if err := uc.RequestIngest(context.Background(), "report.pdf"); err != nil {
		t.Fatalf("RequestIngest() error = %v", err)
	}
	if len(queue.published) != 1 || queue.published[0] != "report.pdf" {
		t.Fatalf("unexpected publishes: %v", queue.published)
	}
}

func TestRequestIngestUnknownDocument(t *testing.T) {
	uc := NewIngestDocumentUseCase(
		&uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{}}},
		&storageFake{}, &textSourceFake{}, &queueFake{}, nil,
	)

	err := uc.RequestIngest(context.Background(), "ghost.pdf")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
