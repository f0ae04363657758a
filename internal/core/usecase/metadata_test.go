package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBudgetMetadataUnderBudgetIsCopiedUnchanged(t *testing.T) {
	in := map[string]any{
		"source":       "report.pdf",
		"chunk_id":     2,
		"total_chunks": 5,
		"content":      "short text",
	}

	out := budgetMetadata(in, metadataBudgetBytes)

	if len(out) != len(in) {
		t.Fatalf("expected %d fields, got %d", len(in), len(out))
	}
	if out["content"] != "short text" {
		t.Fatalf("content field modified: %v", out["content"])
	}
	out["content"] = "mutated"
	if in["content"] != "short text" {
		t.Fatal("budgetMetadata returned the input map instead of a copy")
	}
}

func TestBudgetMetadataTruncatesLargeTextFields(t *testing.T) {
	big := strings.Repeat("x", 3000)
	in := map[string]any{
		"source":  "report.pdf",
		"content": big,
		"summary": big,
	}

	out := budgetMetadata(in, 2000)

	content, _ := out["content"].(string)
	if !strings.HasSuffix(content, elisionMarker) {
		t.Fatalf("expected elision marker suffix, got %q", content[len(content)-30:])
	}
	if len(content) != truncatePrefix+len(elisionMarker) {
		t.Fatalf("unexpected truncated length %d", len(content))
	}
}

func TestBudgetMetadataTruncatesOnRuneBoundary(t *testing.T) {
	// Three bytes per rune, so a byte-indexed cut at 500 would land
	// mid-sequence and corrupt the string.
	big := strings.Repeat("日", 1200)
	in := map[string]any{
		"source":  "report.pdf",
		"content": big,
	}

	out := budgetMetadata(in, 2000)

	content, _ := out["content"].(string)
	if !strings.HasSuffix(content, elisionMarker) {
		t.Fatalf("expected elision marker suffix, got %q", content)
	}
	if !utf8.ValidString(content) {
		t.Fatal("truncated field is not valid UTF-8")
	}
	kept := strings.TrimSuffix(content, elisionMarker)
	if n := utf8.RuneCountInString(kept); n != truncatePrefix {
		t.Fatalf("kept %d runes, want %d", n, truncatePrefix)
	}
}

func TestBudgetMetadataDropsNonEssentialWhenStillOver(t *testing.T) {
	in := map[string]any{
		"source":       "report.pdf",
		"chunk_id":     0,
		"total_chunks": 1,
		"notes":        strings.Repeat("n", 900),
		"extra":        strings.Repeat("e", 900),
	}

	out := budgetMetadata(in, 100)

	for _, key := range []string{"source", "chunk_id", "total_chunks"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("essential field %q dropped", key)
		}
	}
	if _, ok := out["notes"]; ok {
		t.Fatal("non-essential field survived the drop pass")
	}
	if _, ok := out["extra"]; ok {
		t.Fatal("non-essential field survived the drop pass")
	}
}

func TestEmergencyMetadataShape(t *testing.T) {
	out := emergencyMetadata("report.pdf", 3, 7)

	if len(out) != 3 {
		t.Fatalf("expected exactly 3 fields, got %d", len(out))
	}
	if out["source"] != "report.pdf" || out["chunk_id"] != 3 || out["total_chunks"] != 7 {
		t.Fatalf("unexpected emergency metadata: %v", out)
	}
}
