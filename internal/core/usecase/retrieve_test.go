package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

type searchVectorFake struct {
	cleanupVectorFake
	denseHits    []domain.RetrievedChunk
	lexicalHits  []domain.RetrievedChunk
	denseErr     error
	lexicalErr   error
	denseFilters []domain.SearchFilter
	lexicalCalls int
}

func (f *searchVectorFake) Search(_ context.Context, _ []float32, _ int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	f.denseFilters = append(f.denseFilters, filter)
	if f.denseErr != nil {
		return nil, f.denseErr
	}
	return f.denseHits, nil
}

func (f *searchVectorFake) SearchLexical(context.Context, domain.SparseVector, int) ([]domain.RetrievedChunk, error) {
	f.lexicalCalls++
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return f.lexicalHits, nil
}

func chunk(source string, id int, score float64) domain.RetrievedChunk {
	return domain.RetrievedChunk{Source: source, ChunkID: id, Score: score, Text: "text"}
}

func newTestRetriever(vector *searchVectorFake, lexical *lexicalFake) *HybridRetriever {
	return NewHybridRetriever(
		&embedderFake{query: []float32{0.1, 0.2}},
		vector,
		lexical,
		10,
		0.3,
	)
}

func TestRetrieveFilteredUsesDenseOnly(t *testing.T) {
	vector := &searchVectorFake{denseHits: []domain.RetrievedChunk{chunk("report.pdf", 0, 0.9)}}
	lexical := &lexicalFake{encoder: &encoderFake{vec: domain.SparseVector{Indices: []uint32{1}, Values: []float32{1}}}}
	r := newTestRetriever(vector, lexical)

	hits, err := r.Retrieve(context.Background(), "query", domain.SearchFilter{Source: "report.pdf"})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "report.pdf" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if vector.lexicalCalls != 0 {
		t.Fatal("filtered retrieval must not run a lexical search")
	}
	if len(vector.denseFilters) != 1 || vector.denseFilters[0].Source != "report.pdf" {
		t.Fatalf("expected filtered dense search, got %+v", vector.denseFilters)
	}
}

func TestRetrieveBlendsDenseAndLexical(t *testing.T) {
	vector := &searchVectorFake{
		denseHits: []domain.RetrievedChunk{
			chunk("a.pdf", 0, 0.9),
			chunk("b.pdf", 1, 0.5),
		},
		lexicalHits: []domain.RetrievedChunk{
			chunk("b.pdf", 1, 8.0),
			chunk("c.pdf", 2, 2.0),
		},
	}
	lexical := &lexicalFake{encoder: &encoderFake{vec: domain.SparseVector{Indices: []uint32{1}, Values: []float32{1}}}}
	r := newTestRetriever(vector, lexical)

	hits, err := r.Retrieve(context.Background(), "query", domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 blended hits, got %d", len(hits))
	}
	// b.pdf tops both normalized lists combined: 0.3*0 + 0.7*1 = 0.7
	// beats a.pdf's 0.3*1 = 0.3 under the lexical-heavy blend.
	if hits[0].Source != "b.pdf" {
		t.Fatalf("expected lexical-heavy blend to rank b.pdf first, got %+v", hits)
	}
	if hits[1].Source != "a.pdf" {
		t.Fatalf("expected a.pdf second, got %+v", hits)
	}
}

func TestRetrieveDegradesToDenseOnLexicalFailure(t *testing.T) {
	vector := &searchVectorFake{
		denseHits:  []domain.RetrievedChunk{chunk("a.pdf", 0, 0.9)},
		lexicalErr: errors.New("sparse search failed"),
	}
	lexical := &lexicalFake{encoder: &encoderFake{vec: domain.SparseVector{Indices: []uint32{1}, Values: []float32{1}}}}
	r := newTestRetriever(vector, lexical)

	hits, err := r.Retrieve(context.Background(), "query", domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "a.pdf" {
		t.Fatalf("expected dense-only fallback, got %+v", hits)
	}
}

func TestRetrieveSkipsLexicalWhenCorpusEmpty(t *testing.T) {
	vector := &searchVectorFake{denseHits: []domain.RetrievedChunk{chunk("a.pdf", 0, 0.9)}}
	// Empty encoder produces an empty query vector.
	lexical := &lexicalFake{encoder: &encoderFake{}}
	r := newTestRetriever(vector, lexical)

	hits, err := r.Retrieve(context.Background(), "query", domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if vector.lexicalCalls != 0 {
		t.Fatal("empty sparse query must not hit the lexical index")
	}
	if len(hits) != 1 {
		t.Fatalf("expected dense hits only, got %+v", hits)
	}
}

func TestRetrieveCapsAtTopK(t *testing.T) {
	var dense []domain.RetrievedChunk
	for i := 0; i < 15; i++ {
		dense = append(dense, chunk("a.pdf", i, float64(15-i)))
	}
	vector := &searchVectorFake{denseHits: dense}
	lexical := &lexicalFake{corpusErr: errors.New("no artifacts")}
	r := newTestRetriever(vector, lexical)

	hits, err := r.Retrieve(context.Background(), "query", domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 10 {
		t.Fatalf("expected top 10 hits, got %d", len(hits))
	}
}

func TestRetrieveEmbedErrorSurfaces(t *testing.T) {
	vector := &searchVectorFake{}
	r := NewHybridRetriever(
		&embedderFake{err: errors.New("embedder down")},
		vector,
		&lexicalFake{encoder: &encoderFake{}},
		10,
		0.3,
	)

	if _, err := r.Retrieve(context.Background(), "query", domain.SearchFilter{}); err == nil {
		t.Fatal("expected embed error")
	}
}
