package tabular

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

const (
	sourceDir = "uploaded_files"

	// sampleRows bounds how much of the table goes into a prompt.
	sampleRows = 200
)

// Agent opens uploaded tabular files as query sessions.
type Agent struct {
	storage   ports.ObjectStorage
	generator ports.AnswerGenerator
	logger    *slog.Logger
}

func NewAgent(storage ports.ObjectStorage, generator ports.AnswerGenerator, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{storage: storage, generator: generator, logger: logger}
}

func (a *Agent) Open(ctx context.Context, filename string) (ports.TabularSession, error) {
	rc, err := a.storage.Open(ctx, sourceDir, filename)
	if err != nil {
		return nil, fmt.Errorf("open tabular file: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read tabular file: %w", err)
	}

	dataset, err := Parse(raw, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	a.logger.Info("tabular session opened",
		"file", filename, "format", dataset.Format,
		"rows", len(dataset.Rows), "columns", len(dataset.Columns))
	return &session{
		filename:  filename,
		dataset:   dataset,
		generator: a.generator,
	}, nil
}

type session struct {
	filename  string
	dataset   *Dataset
	generator ports.AnswerGenerator
}

func (s *session) Query(ctx context.Context, question string) (string, error) {
	answer, err := s.generator.GenerateFromPrompt(ctx, s.buildPrompt(question))
	if err != nil {
		return "", fmt.Errorf("tabular query %s: %w", s.filename, err)
	}
	return strings.TrimSpace(answer), nil
}

func (s *session) buildPrompt(question string) string {
	summary := s.dataset.Summary()
	return fmt.Sprintf(`You are a data analyst. Answer the question using only the table below.
The table comes from the file %q and has %d rows and %d columns.
Be precise with numbers. If the table does not contain the answer, reply exactly:
No specific data found for this query in this file.

Table:
%s
Question:
%s`,
		s.filename,
		summary.Rows,
		summary.Columns,
		s.dataset.Render(sampleRows),
		question,
	)
}

func (s *session) Summary() domain.DataSummary {
	return s.dataset.Summary()
}

func (s *session) FileType() string {
	return s.dataset.Format
}

func (s *session) Close() error { return nil }
