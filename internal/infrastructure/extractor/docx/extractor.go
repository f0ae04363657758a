// Package docx extracts paragraph text from Word documents. A .docx
// file is a zip archive whose word/document.xml carries the text runs.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
	dir     string
}

func NewExtractor(storage ports.ObjectStorage, dir string) *Extractor {
	return &Extractor{storage: storage, dir: dir}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	rc, err := e.storage.Open(ctx, e.dir, doc.Name)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	text, err := extractDocumentXML(raw)
	if err != nil {
		return "", fmt.Errorf("parse docx %s: %w", doc.Name, err)
	}
	return text, nil
}

func extractDocumentXML(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	var docXML io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("word/document.xml not found")
	}
	defer docXML.Close()

	return collectText(docXML)
}

// collectText walks the XML stream and gathers the character data of
// every w:t run, inserting a paragraph break at each w:p close.
func collectText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
