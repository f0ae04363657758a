package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusIngesting DocumentStatus = "ingesting"
	StatusIngested  DocumentStatus = "ingested"
	StatusSkipped   DocumentStatus = "skipped_tabular"
	StatusFailed    DocumentStatus = "failed"
)

// FileClass is resolved once at upload time from the original extension
// and threaded through ingestion and search, so no later component has
// to sniff extensions again.
type FileClass string

const (
	ClassDocument FileClass = "document"
	ClassTabular  FileClass = "tabular"
)

var (
	tabularExtensions  = []string{".xlsx", ".xls", ".csv"}
	documentExtensions = []string{".pdf", ".docx", ".txt", ".md"}
)

// Document is a logical source file identified by its canonical name
// (original filename, extension preserved). Re-ingestion of the same
// name always supersedes the prior ingested state.
type Document struct {
	Name        string         `json:"name"`
	Extension   string         `json:"extension"`
	Class       FileClass      `json:"class"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	// Generation counts successful ingestions of this name; each one
	// fully replaces the previous chunk set.
	Generation int       `json:"generation"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (d *Document) BaseName() string {
	return BaseName(d.Name)
}

// BaseName strips the final extension from a canonical document name.
func BaseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolveFileClass classifies a filename by its extension. Anything
// that is not a spreadsheet/CSV is treated as a text document.
func ResolveFileClass(filename string) FileClass {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, tab := range tabularExtensions {
		if ext == tab {
			return ClassTabular
		}
	}
	return ClassDocument
}

// SupportedExtension reports whether uploads with this extension are
// accepted at all.
func SupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range documentExtensions {
		if ext == e {
			return true
		}
	}
	for _, e := range tabularExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FileType names the tabular flavor for result reporting.
func FileType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xls":
		return "excel"
	default:
		return "unknown"
	}
}

// SourceNameVariants enumerates every spelling under which chunks of
// this document may have been written historically: the canonical name,
// the bare base name, and the base name with each supported extension.
// Dedup cleanup deletes by every one of them.
func SourceNameVariants(name string) []string {
	base := BaseName(name)
	variants := []string{name, base}
	for _, ext := range documentExtensions {
		variants = append(variants, base+ext)
	}
	for _, ext := range tabularExtensions {
		variants = append(variants, base+ext)
	}
	out := variants[:0]
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ChunkKey derives the stable identifier for one chunk of a document.
// It is deterministic across re-ingestions of the same name, which is
// what turns a second ingestion into an upsert instead of an append.
func ChunkKey(documentName string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", BaseName(documentName), index)
}
