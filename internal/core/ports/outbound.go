package ports

import (
	"context"
	"io"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

// DocumentRepository persists and reads document registry state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByName(ctx context.Context, name string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, name string, status domain.DocumentStatus, errMessage string) error
	RecordIngestion(ctx context.Context, name string, chunkCount int) (generation int, err error)
	Delete(ctx context.Context, name string) error
}

// ObjectStorage stores source files, parsed text and lexical artifacts
// under named directories.
type ObjectStorage interface {
	Save(ctx context.Context, dir, name string, data io.Reader) error
	Open(ctx context.Context, dir, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, dir, name string) error
	List(ctx context.Context, dir string) ([]string, error)
	Exists(ctx context.Context, dir, name string) (bool, error)
}

// MessageQueue publishes/consumes ingestion requests.
type MessageQueue interface {
	PublishIngestRequested(ctx context.Context, documentName string) error
	SubscribeIngestRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextSource loads the parsed (possibly later edited) text of a
// document. Returns domain.ErrDocumentNotFound if the document was
// never parsed.
type TextSource interface {
	Load(ctx context.Context, documentName string) (text string, metadata map[string]any, err error)
	Store(ctx context.Context, documentName, text string) error
	// Delete removes the parsed text. A document that was never
	// parsed is not an error.
	Delete(ctx context.Context, documentName string) error
}

// TextExtractor turns a stored source file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Embedder builds dense vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into bounded, overlapping chunks.
type Chunker interface {
	Split(text string) []string
}

// SparseEncoder encodes texts into lexical sparse vectors. Document
// encoding uses term-frequency saturation; query encoding uses the
// corpus statistics the encoder was fitted (or merged) with.
type SparseEncoder interface {
	EncodeDocument(text string) domain.SparseVector
	EncodeQuery(text string) domain.SparseVector
}

// LexicalIndex maintains one persisted encoder artifact per ingested
// document and produces the merged corpus-wide encoder for queries.
type LexicalIndex interface {
	Fit(ctx context.Context, baseName string, chunks []string) (SparseEncoder, error)
	Remove(ctx context.Context, baseName string) error
	CorpusEncoder(ctx context.Context) (SparseEncoder, error)
}

// VectorStore indexes chunks (dense plus lexical representation) and
// serves dense, lexical and source-filtered searches. Deletes accept
// payload filters and explicit chunk keys; "not found" is success.
type VectorStore interface {
	UpsertChunks(ctx context.Context, doc *domain.Document, chunks []string, metadata []map[string]any, dense [][]float32, sparse []domain.SparseVector) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	SearchLexical(ctx context.Context, query domain.SparseVector, limit int) ([]domain.RetrievedChunk, error)
	DeleteBySource(ctx context.Context, source string) error
	DeleteByChunkKeys(ctx context.Context, chunkKeys []string) error
}

// AnswerGenerator creates the final user-facing answer text.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// TabularSession answers natural-language questions about one open
// tabular dataset.
type TabularSession interface {
	Query(ctx context.Context, question string) (string, error)
	Summary() domain.DataSummary
	FileType() string
	Close() error
}

// TabularAgent opens tabular datasets by their uploaded filename.
type TabularAgent interface {
	Open(ctx context.Context, filename string) (TabularSession, error)
}

// ResultClassifier decides whether a candidate answer is meaningful.
// It is pluggable so the heuristic can be swapped without touching the
// search orchestrator.
type ResultClassifier interface {
	Classify(result any) domain.Verdict
}
