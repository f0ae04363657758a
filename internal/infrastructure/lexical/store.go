package lexical

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

const (
	artifactDir    = "bm25_indexes"
	artifactSuffix = ".bm25.json"
)

// Store persists one encoder artifact per ingested document and
// assembles the merged corpus encoder for query-time encoding.
type Store struct {
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewStore(storage ports.ObjectStorage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, logger: logger}
}

// Fit trains an encoder over the chunks, persists it under the
// document's base name and returns it for immediate chunk encoding.
func (s *Store) Fit(ctx context.Context, baseName string, chunks []string) (ports.SparseEncoder, error) {
	encoder := NewEncoder()
	encoder.Fit(chunks)

	raw, err := json.Marshal(encoder)
	if err != nil {
		return nil, fmt.Errorf("marshal encoder artifact: %w", err)
	}
	if err := s.storage.Save(ctx, artifactDir, baseName+artifactSuffix, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("save encoder artifact: %w", err)
	}

	s.logger.Info("lexical artifact saved",
		"document", baseName, "terms", len(encoder.Vocab), "chunks", encoder.NumDocs)
	return encoder, nil
}

// Remove deletes a document's artifact. A missing artifact is success.
func (s *Store) Remove(ctx context.Context, baseName string) error {
	err := s.storage.Delete(ctx, artifactDir, baseName+artifactSuffix)
	if err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return fmt.Errorf("delete encoder artifact: %w", err)
	}
	return nil
}

// CorpusEncoder loads every persisted artifact and merges their
// statistics. An artifact that fails to load is skipped with a warning
// so one corrupt file cannot take down query-time encoding. No
// artifacts at all yields an empty encoder, which encodes every query
// to an empty vector.
func (s *Store) CorpusEncoder(ctx context.Context) (ports.SparseEncoder, error) {
	names, err := s.storage.List(ctx, artifactDir)
	if err != nil {
		return nil, fmt.Errorf("list encoder artifacts: %w", err)
	}

	merged := NewEncoder()
	for _, name := range names {
		if !strings.HasSuffix(name, artifactSuffix) {
			continue
		}
		artifact, err := s.load(ctx, name)
		if err != nil {
			s.logger.Warn("skipping unreadable lexical artifact", "artifact", name, "error", err)
			continue
		}
		merged.Merge(artifact)
	}
	return merged, nil
}

func (s *Store) load(ctx context.Context, name string) (*Encoder, error) {
	rc, err := s.storage.Open(ctx, artifactDir, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	var encoder Encoder
	if err := json.Unmarshal(raw, &encoder); err != nil {
		return nil, err
	}
	if encoder.K1 == 0 {
		encoder.K1 = defaultK1
	}
	if encoder.B == 0 {
		encoder.B = defaultB
	}
	return &encoder, nil
}
