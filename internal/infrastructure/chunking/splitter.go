// Package chunking splits parsed document text into bounded,
// overlapping chunks for indexing.
package chunking

import "strings"

const (
	defaultChunkSize = 4000
	defaultOverlap   = 200
)

// Separator priority for recursive splitting: paragraph breaks first,
// then lines, then words, then a raw rune split as the last resort.
var separators = []string{"\n\n", "\n", " ", ""}

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split segments text along the strongest separator that still divides
// it, merging segments back up to the chunk size with the configured
// overlap carried between neighbours. Whitespace-only chunks are
// dropped.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw := s.split(text, separators)

	out := make([]string, 0, len(raw))
	for _, chunk := range raw {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func (s *Splitter) split(text string, seps []string) []string {
	runes := []rune(text)
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}

	sep, segments := firstSplitting(text, seps)
	if sep == "" {
		return s.splitByRunes(runes)
	}

	// Oversized segments descend to the next separator before merging.
	rest := nextSeparators(seps, sep)
	var pieces []string
	for _, seg := range segments {
		if len([]rune(seg)) > s.ChunkSize {
			pieces = append(pieces, s.split(seg, rest)...)
		} else {
			pieces = append(pieces, seg)
		}
	}

	return s.merge(pieces, sep)
}

// merge packs segments into chunks up to the size limit and seeds each
// new chunk with the tail of the previous one.
func (s *Splitter) merge(segments []string, sep string) []string {
	var chunks []string
	var current strings.Builder

	for _, seg := range segments {
		candidateLen := len([]rune(current.String())) + len([]rune(seg))
		if current.Len() > 0 {
			candidateLen += len([]rune(sep))
		}

		if candidateLen > s.ChunkSize && current.Len() > 0 {
			chunks = append(chunks, current.String())

			tail := overlapTail(current.String(), s.Overlap)
			current.Reset()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString(sep)
			}
			current.WriteString(seg)
			continue
		}

		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(seg)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func (s *Splitter) splitByRunes(runes []rune) []string {
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// firstSplitting returns the first separator that actually divides the
// text. The empty separator never matches here; it is the rune-split
// fallback.
func firstSplitting(text string, seps []string) (string, []string) {
	for _, sep := range seps {
		if sep == "" {
			continue
		}
		parts := strings.Split(text, sep)
		if len(parts) > 1 {
			return sep, parts
		}
	}
	return "", nil
}

func nextSeparators(seps []string, used string) []string {
	for i, sep := range seps {
		if sep == used {
			return seps[i+1:]
		}
	}
	return seps
}

func overlapTail(s string, n int) string {
	runes := []rune(s)
	if n >= len(runes) {
		return s
	}
	return string(runes[len(runes)-n:])
}
