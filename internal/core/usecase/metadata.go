package usecase

import (
	"encoding/json"
	"fmt"
)

// Vector-store imposed metadata limits. The effective budget leaves a
// buffer under the hard per-record ceiling.
const (
	metadataBudgetBytes  = 35000
	metadataCeilingBytes = 40000

	truncateThreshold = 1000
	truncatePrefix    = 500
	elisionMarker     = "... [truncated]"
)

// Fields that commonly carry large text and are safe to shorten.
var truncatableFields = []string{"content", "text", "summary", "description"}

// Fields that must survive any truncation.
var essentialFields = map[string]struct{}{
	"source":       {},
	"chunk_id":     {},
	"total_chunks": {},
}

func metadataSize(metadata map[string]any) int {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return 0
	}
	return len(raw)
}

// budgetMetadata shrinks a chunk metadata map until it fits the store's
// size limits. Large text-bearing fields are truncated first; if the
// map is still over budget, everything but the essential identity
// fields is dropped. The returned map is always a copy.
func budgetMetadata(metadata map[string]any, maxSize int) map[string]any {
	if maxSize <= 0 {
		maxSize = metadataBudgetBytes
	}

	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}

	if metadataSize(out) <= maxSize {
		return out
	}

	for _, field := range truncatableFields {
		v, ok := out[field]
		if !ok {
			continue
		}
		s := fmt.Sprintf("%v", v)
		if len(s) > truncateThreshold {
			out[field] = truncateRunes(s, truncatePrefix) + elisionMarker
		}
	}

	if metadataSize(out) <= maxSize {
		return out
	}

	for k := range out {
		if _, essential := essentialFields[k]; !essential {
			delete(out, k)
		}
	}
	return out
}

// emergencyMetadata is the last-resort shape when even the budgeted map
// exceeds the hard ceiling: only the identity fields survive.
func emergencyMetadata(source string, chunkID, totalChunks int) map[string]any {
	return map[string]any{
		"source":       source,
		"chunk_id":     chunkID,
		"total_chunks": totalChunks,
	}
}

// truncateRunes cuts on a rune boundary so a multibyte character is
// never split mid-sequence.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
