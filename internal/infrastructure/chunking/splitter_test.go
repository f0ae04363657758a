package chunking

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(4000, 200)

	chunks := s.Split("a short document body")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a short document body" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(4000, 200)

	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty text, got %v", chunks)
	}
	if chunks := s.Split("  \n\t "); chunks != nil {
		t.Fatalf("expected nil for whitespace-only text, got %v", chunks)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 100)
	text := para + "\n\n" + para + "\n\n" + para

	s := NewSplitter(600, 50)
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 600 {
			t.Fatalf("chunk %d exceeds size limit: %d runes", i, len([]rune(c)))
		}
	}
}

func TestSplitLargeDocumentChunkCount(t *testing.T) {
	// ~12000 chars of paragraph text at 4000/200 lands on 4 chunks:
	// three full windows plus the overlap-carried remainder.
	var b strings.Builder
	for b.Len() < 12000 {
		b.WriteString(strings.Repeat("lorem ipsum dolor sit amet ", 10))
		b.WriteString("\n\n")
	}

	s := NewSplitter(4000, 200)
	chunks := s.Split(b.String())

	if len(chunks) < 3 || len(chunks) > 5 {
		t.Fatalf("expected 3-5 chunks for ~12k chars, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 4000 {
			t.Fatalf("chunk %d exceeds size limit: %d runes", i, len([]rune(c)))
		}
	}
}

func TestSplitCarriesOverlap(t *testing.T) {
	words := strings.Repeat("alpha beta gamma delta ", 40)

	s := NewSplitter(200, 40)
	chunks := s.Split(words)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// The start of each later chunk repeats the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		tail := overlapTail(chunks[i-1], 20)
		if !strings.Contains(chunks[i][:min(len(chunks[i]), 80)], strings.TrimSpace(tail)[:5]) {
			t.Fatalf("chunk %d does not carry overlap from its predecessor", i)
		}
	}
}

func TestSplitNoSeparatorsFallsBackToRunes(t *testing.T) {
	blob := strings.Repeat("x", 950)

	s := NewSplitter(400, 50)
	chunks := s.Split(blob)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 rune-split chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 400 {
		t.Fatalf("expected full first window, got %d", len(chunks[0]))
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != defaultChunkSize || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: %+v", s)
	}

	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamped to a quarter of chunk size, got %d", s.Overlap)
	}
}
