package ports

import (
	"context"
	"io"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

// DocumentIngestor is the inbound contract for upload and content
// editing orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
	SaveContent(ctx context.Context, documentName, content string) error
	RequestIngest(ctx context.Context, documentName string) error
}

// DocumentRemover deletes a document and every artifact derived from
// it: the stored file, the parsed text, the lexical artifact and the
// indexed vectors.
type DocumentRemover interface {
	Delete(ctx context.Context, documentName string) error
}

// DocumentProcessor runs the full ingestion pipeline for one document.
type DocumentProcessor interface {
	ProcessByName(ctx context.Context, documentName string) (*domain.IngestOutcome, error)
}

// SearchService is the inbound contract for routed hybrid search.
// Search never returns an error; failures surface inside the result.
type SearchService interface {
	Search(ctx context.Context, query, sourceDocument string, debug bool) domain.SearchResult
	QueryTabular(ctx context.Context, filename, query string) (domain.TabularResult, error)
	QueryTabularAll(ctx context.Context, query string) ([]domain.TabularResult, error)
}

// ContentService generates derived content from a parsed document.
type ContentService interface {
	Summarize(ctx context.Context, documentName string) (string, error)
	GenerateQuestions(ctx context.Context, documentName string) (string, error)
	GenerateFAQ(ctx context.Context, documentName string) (string, error)
}

// DocumentReader is the inbound read model for registry state.
type DocumentReader interface {
	GetByName(ctx context.Context, name string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}
