package docx

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocumentXML(t *testing.T) {
	raw := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := extractDocumentXML(raw)
	if err != nil {
		t.Fatalf("extractDocumentXML() error = %v", err)
	}
	if !strings.Contains(text, "First paragraph.") {
		t.Fatalf("missing first paragraph: %q", text)
	}
	if !strings.Contains(text, "Second paragraph.") {
		t.Fatalf("split runs not joined: %q", text)
	}
	if !strings.Contains(text, "First paragraph.\nSecond paragraph.") {
		t.Fatalf("expected paragraph break between paragraphs: %q", text)
	}
}

func TestExtractDocumentXMLMissingEntry(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_ = w.Close()

	if _, err := extractDocumentXML(buf.Bytes()); err == nil {
		t.Fatal("expected error for archive without document.xml")
	}
}

func TestExtractDocumentXMLNotAZip(t *testing.T) {
	if _, err := extractDocumentXML([]byte("plain text")); err == nil {
		t.Fatal("expected error for non-zip payload")
	}
}
