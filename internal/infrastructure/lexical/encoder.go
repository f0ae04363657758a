// Package lexical implements the BM25 side of the hybrid index: a
// fitted encoder per document, persisted as a JSON artifact, and a
// merged corpus-wide encoder for query encoding.
package lexical

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

const (
	defaultK1 = 1.2
	defaultB  = 0.75

	maxSparseTerms = 256
)

// Encoder holds BM25 corpus statistics. It is fitted over one
// document's chunks at ingestion time and merged across artifacts at
// query time. The zero value (before Fit) encodes documents with pure
// term-frequency saturation and produces empty query vectors.
type Encoder struct {
	K1 float64 `json:"k1"`
	B  float64 `json:"b"`
	// Vocab maps each term to the number of chunks containing it.
	Vocab    map[string]int `json:"vocab"`
	NumDocs  int            `json:"num_docs"`
	TotalLen int            `json:"total_len"`
}

func NewEncoder() *Encoder {
	return &Encoder{
		K1:    defaultK1,
		B:     defaultB,
		Vocab: make(map[string]int),
	}
}

// Fit accumulates document frequencies and length statistics over the
// chunks. Each chunk counts as one document for the df statistics.
func (e *Encoder) Fit(chunks []string) {
	if e.Vocab == nil {
		e.Vocab = make(map[string]int)
	}
	for _, chunk := range chunks {
		tokens := tokenizeAlphaNum(chunk)
		e.NumDocs++
		e.TotalLen += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			e.Vocab[tok]++
		}
	}
}

// Merge folds another encoder's statistics into this one. Both sides
// must use the same K1/B; the receiver's parameters win.
func (e *Encoder) Merge(other *Encoder) {
	if other == nil {
		return
	}
	if e.Vocab == nil {
		e.Vocab = make(map[string]int)
	}
	for term, df := range other.Vocab {
		e.Vocab[term] += df
	}
	e.NumDocs += other.NumDocs
	e.TotalLen += other.TotalLen
}

func (e *Encoder) avgDocLen() float64 {
	if e.NumDocs == 0 {
		return 0
	}
	return float64(e.TotalLen) / float64(e.NumDocs)
}

// EncodeDocument produces the sparse representation of one chunk:
// term frequency saturated by K1 and normalized by chunk length
// against the corpus average.
func (e *Encoder) EncodeDocument(text string) domain.SparseVector {
	tokens := tokenizeAlphaNum(text)
	if len(tokens) == 0 {
		return domain.SparseVector{}
	}

	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}

	avg := e.avgDocLen()
	lengthNorm := 1.0
	if avg > 0 {
		lengthNorm = 1 - e.B + e.B*float64(len(tokens))/avg
	}

	weights := make(map[uint32]float64, len(tf))
	for term, freq := range tf {
		w := (freq * (e.K1 + 1)) / (freq + e.K1*lengthNorm)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		weights[hashToken(term)] += w
	}
	return toSparse(weights)
}

// EncodeQuery weights each query term by its inverse document
// frequency in the fitted corpus. Terms never seen during fitting are
// dropped, so an empty corpus yields an empty vector.
func (e *Encoder) EncodeQuery(text string) domain.SparseVector {
	if e.NumDocs == 0 || len(e.Vocab) == 0 {
		return domain.SparseVector{}
	}

	tokens := tokenizeAlphaNum(text)
	weights := make(map[uint32]float64, len(tokens))
	n := float64(e.NumDocs)
	for _, term := range tokens {
		df, ok := e.Vocab[term]
		if !ok {
			continue
		}
		idf := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
		if idf <= 0 {
			continue
		}
		weights[hashToken(term)] += idf
	}
	return toSparse(weights)
}

func toSparse(weights map[uint32]float64) domain.SparseVector {
	if len(weights) == 0 {
		return domain.SparseVector{}
	}

	indices := make([]uint32, 0, len(weights))
	for idx := range weights {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	if len(indices) > maxSparseTerms {
		indices = indices[:maxSparseTerms]
	}

	values := make([]float32, 0, len(indices))
	for _, idx := range indices {
		values = append(values, float32(weights[idx]))
	}
	return domain.SparseVector{Indices: indices, Values: values}
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum32()
	if sum == 0 {
		return 1
	}
	return sum
}

func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
