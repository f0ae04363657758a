package tabular

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

type memStorage struct {
	files map[string][]byte
}

func (m *memStorage) Save(_ context.Context, dir, name string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[dir+"/"+name] = raw
	return nil
}

func (m *memStorage) Open(_ context.Context, dir, name string) (io.ReadCloser, error) {
	raw, ok := m.files[dir+"/"+name]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memStorage) Delete(context.Context, string, string) error     { return nil }
func (m *memStorage) List(context.Context, string) ([]string, error)   { return nil, nil }
func (m *memStorage) Exists(context.Context, string, string) (bool, error) {
	return false, nil
}

type promptGenerator struct {
	answer string
	prompt string
	err    error
}

func (g *promptGenerator) GenerateAnswer(context.Context, string, []domain.RetrievedChunk) (string, error) {
	return "", errors.New("not used")
}

func (g *promptGenerator) GenerateFromPrompt(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func csvStorage(t *testing.T, name, content string) *memStorage {
	t.Helper()
	storage := &memStorage{}
	if err := storage.Save(context.Background(), "uploaded_files", name, strings.NewReader(content)); err != nil {
		t.Fatalf("seed storage: %v", err)
	}
	return storage
}

func TestParseCSV(t *testing.T) {
	dataset, err := Parse([]byte("region,sales\nnorth,100\nsouth,200\n"), ".csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if dataset.Format != "csv" {
		t.Fatalf("expected csv format, got %s", dataset.Format)
	}
	if len(dataset.Columns) != 2 || dataset.Columns[0] != "region" {
		t.Fatalf("unexpected columns: %v", dataset.Columns)
	}
	if len(dataset.Rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(dataset.Rows))
	}
}

func TestParseDetectsExcelByMagicBytes(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"region", "sales"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"north", 100})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	// Deliberately mislabeled as csv; the zip magic must win.
	dataset, err := Parse(buf.Bytes(), ".csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if dataset.Format != "excel" {
		t.Fatalf("expected excel format, got %s", dataset.Format)
	}
	if len(dataset.Rows) != 1 || dataset.Rows[0][0] != "north" {
		t.Fatalf("unexpected rows: %v", dataset.Rows)
	}
}

func TestParseEmptyFile(t *testing.T) {
	if _, err := Parse(nil, ".csv"); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestRenderCapsRows(t *testing.T) {
	dataset := &Dataset{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}},
		Format:  "csv",
	}

	out := dataset.Render(2)
	if !strings.Contains(out, "a | b") {
		t.Fatalf("expected header row, got %q", out)
	}
	if !strings.Contains(out, "(1 more rows)") {
		t.Fatalf("expected truncation marker, got %q", out)
	}
	if strings.Contains(out, "5 | 6") {
		t.Fatalf("row past the cap leaked into output: %q", out)
	}
}

func TestAgentSessionQuery(t *testing.T) {
	storage := csvStorage(t, "sales.csv", "region,sales\nnorth,100\n")
	gen := &promptGenerator{answer: "North sales were 100."}
	agent := NewAgent(storage, gen, nil)

	session, err := agent.Open(context.Background(), "sales.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer session.Close()

	answer, err := session.Query(context.Background(), "what were north sales?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if answer != "North sales were 100." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if !strings.Contains(gen.prompt, "north | 100") {
		t.Fatalf("expected rendered table in prompt, got %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "sales.csv") {
		t.Fatalf("expected filename in prompt, got %q", gen.prompt)
	}

	summary := session.Summary()
	if summary.Rows != 1 || summary.Columns != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if session.FileType() != "csv" {
		t.Fatalf("unexpected file type: %s", session.FileType())
	}
}

func TestAgentOpenMissingFile(t *testing.T) {
	agent := NewAgent(&memStorage{}, &promptGenerator{}, nil)
	if _, err := agent.Open(context.Background(), "ghost.csv"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAgentOpenCorruptFile(t *testing.T) {
	storage := csvStorage(t, "bad.xlsx", "this is not a spreadsheet")
	agent := NewAgent(storage, &promptGenerator{}, nil)
	if _, err := agent.Open(context.Background(), "bad.xlsx"); err == nil {
		t.Fatal("expected parse error")
	}
}
