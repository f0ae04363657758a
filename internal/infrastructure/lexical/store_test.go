package lexical

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type memStorage struct {
	files   map[string][]byte
	saveErr error
	listErr error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) key(dir, name string) string { return dir + "/" + name }

func (m *memStorage) Save(_ context.Context, dir, name string, data io.Reader) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.files[m.key(dir, name)] = raw
	return nil
}

func (m *memStorage) Open(_ context.Context, dir, name string) (io.ReadCloser, error) {
	raw, ok := m.files[m.key(dir, name)]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memStorage) Delete(_ context.Context, dir, name string) error {
	delete(m.files, m.key(dir, name))
	return nil
}

func (m *memStorage) List(_ context.Context, dir string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []string
	for key := range m.files {
		if strings.HasPrefix(key, dir+"/") {
			out = append(out, strings.TrimPrefix(key, dir+"/"))
		}
	}
	return out, nil
}

func (m *memStorage) Exists(_ context.Context, dir, name string) (bool, error) {
	_, ok := m.files[m.key(dir, name)]
	return ok, nil
}

func TestFitPersistsArtifact(t *testing.T) {
	storage := newMemStorage()
	store := NewStore(storage, nil)

	encoder, err := store.Fit(context.Background(), "report", []string{"alpha beta", "gamma"})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if encoder == nil {
		t.Fatal("expected a returned encoder")
	}
	if _, ok := storage.files["bm25_indexes/report.bm25.json"]; !ok {
		t.Fatalf("artifact not written: %v", storage.files)
	}
	if v := encoder.EncodeQuery("alpha"); v.IsEmpty() {
		t.Fatal("returned encoder should encode fitted terms")
	}
}

func TestCorpusEncoderMergesAllArtifacts(t *testing.T) {
	storage := newMemStorage()
	store := NewStore(storage, nil)
	ctx := context.Background()

	if _, err := store.Fit(ctx, "a", []string{"alpha beta"}); err != nil {
		t.Fatalf("Fit(a) error = %v", err)
	}
	if _, err := store.Fit(ctx, "b", []string{"alpha gamma"}); err != nil {
		t.Fatalf("Fit(b) error = %v", err)
	}

	merged, err := store.CorpusEncoder(ctx)
	if err != nil {
		t.Fatalf("CorpusEncoder() error = %v", err)
	}
	if v := merged.EncodeQuery("gamma"); v.IsEmpty() {
		t.Fatal("merged encoder should know terms from every artifact")
	}
	if v := merged.EncodeQuery("beta"); v.IsEmpty() {
		t.Fatal("merged encoder should know terms from every artifact")
	}
}

func TestCorpusEncoderEmptyCorpus(t *testing.T) {
	store := NewStore(newMemStorage(), nil)

	merged, err := store.CorpusEncoder(context.Background())
	if err != nil {
		t.Fatalf("CorpusEncoder() error = %v", err)
	}
	if v := merged.EncodeQuery("anything"); !v.IsEmpty() {
		t.Fatalf("empty corpus must yield empty query vectors, got %+v", v)
	}
}

func TestCorpusEncoderSkipsCorruptArtifact(t *testing.T) {
	storage := newMemStorage()
	store := NewStore(storage, nil)
	ctx := context.Background()

	if _, err := store.Fit(ctx, "good", []string{"alpha beta"}); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	storage.files["bm25_indexes/bad.bm25.json"] = []byte("{not json")

	merged, err := store.CorpusEncoder(ctx)
	if err != nil {
		t.Fatalf("CorpusEncoder() error = %v", err)
	}
	if v := merged.EncodeQuery("alpha"); v.IsEmpty() {
		t.Fatal("healthy artifacts must survive a corrupt neighbour")
	}
}

func TestRemoveMissingArtifactIsSuccess(t *testing.T) {
	store := NewStore(newMemStorage(), nil)
	if err := store.Remove(context.Background(), "ghost"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
}
