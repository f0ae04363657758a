package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

func TestDeleteRemovesEveryArtifact(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{
		"report.pdf": {Name: "report.pdf", Class: domain.ClassDocument, Status: domain.StatusIngested},
	}}}
	storage := &storageFake{}
	source := &textSourceFake{}
	lexical := &lexicalFake{}
	vectors := &cleanupVectorFake{}
	uc := NewDeleteDocumentUseCase(repo, storage, source, lexical, vectors, nil)

	if err := uc.Delete(context.Background(), "report.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "report.pdf" {
		t.Fatalf("registry delete = %v, want [report.pdf]", repo.deleted)
	}
	if len(vectors.sourceDeletes) == 0 {
		t.Fatal("expected indexed vectors to be purged")
	}
	if len(lexical.removed) != 1 || lexical.removed[0] != "report" {
		t.Fatalf("lexical removal = %v, want [report]", lexical.removed)
	}
	if len(source.deleted) != 1 || source.deleted[0] != "report.pdf" {
		t.Fatalf("parsed text removal = %v, want [report.pdf]", source.deleted)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "uploaded_files/report.pdf" {
		t.Fatalf("stored file removal = %v, want [uploaded_files/report.pdf]", storage.deleted)
	}
}

func TestDeleteUnknownDocumentReturnsNotFound(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{}}}
	storage := &storageFake{}
	uc := NewDeleteDocumentUseCase(repo, storage, &textSourceFake{}, &lexicalFake{}, &cleanupVectorFake{}, nil)

	err := uc.Delete(context.Background(), "ghost.pdf")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if len(repo.deleted) != 0 || len(storage.deleted) != 0 {
		t.Fatal("artifact removal ran for an unknown document")
	}
}

func TestDeleteSurvivesArtifactFailures(t *testing.T) {
	repo := &uploadRepoFake{searchRepoFake: searchRepoFake{docs: map[string]*domain.Document{
		"sales.csv": {Name: "sales.csv", Class: domain.ClassTabular, Status: domain.StatusIngested},
	}}}
	vectors := &cleanupVectorFake{sourceErr: errors.New("qdrant down")}
	uc := NewDeleteDocumentUseCase(repo, &storageFake{}, &textSourceFake{}, &lexicalFake{}, vectors, nil)

	if err := uc.Delete(context.Background(), "sales.csv"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("registry row should be removed even when vector cleanup fails")
	}
}
