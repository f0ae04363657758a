package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

const (
	defaultTopK = 10
	// Share of the blended score given to dense similarity. Lexical
	// matching carries the rest so exact-name/entity queries stay
	// precise.
	defaultDenseAlpha = 0.3
)

// HybridRetriever answers a query against the text corpus. Unfiltered
// mode blends dense similarity with lexical relevance from the merged
// corpus encoder; filtered mode queries the dense index directly with
// an equality filter on source. Its contract ends at ranked chunks;
// answer generation belongs to the caller.
type HybridRetriever struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore
	lexical  ports.LexicalIndex
	topK     int
	alpha    float64
}

func NewHybridRetriever(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	lexical ports.LexicalIndex,
	topK int,
	alpha float64,
) *HybridRetriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = defaultDenseAlpha
	}
	return &HybridRetriever{
		embedder: embedder,
		vectorDB: vectorDB,
		lexical:  lexical,
		topK:     topK,
		alpha:    alpha,
	}
}

// Retrieve returns ranked chunks for the query. A non-empty filter
// source bypasses lexical blending, since the filter already narrows
// scope to one document.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if filter.Source != "" {
		chunks, err := r.vectorDB.Search(ctx, queryVector, r.topK, filter)
		if err != nil {
			return nil, fmt.Errorf("filtered dense search: %w", err)
		}
		return chunks, nil
	}

	dense, err := r.vectorDB.Search(ctx, queryVector, r.topK, domain.SearchFilter{})
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	lexicalHits := r.searchLexical(ctx, query)

	return blendWeighted(dense, lexicalHits, r.alpha, r.topK), nil
}

// searchLexical encodes the query with the merged corpus encoder and
// issues a sparse search. Lexical failures degrade to dense-only
// results rather than failing the query.
func (r *HybridRetriever) searchLexical(ctx context.Context, query string) []domain.RetrievedChunk {
	encoder, err := r.lexical.CorpusEncoder(ctx)
	if err != nil {
		return nil
	}
	sparse := encoder.EncodeQuery(query)
	if sparse.IsEmpty() {
		return nil
	}
	hits, err := r.vectorDB.SearchLexical(ctx, sparse, r.topK)
	if err != nil {
		return nil
	}
	return hits
}

// blendWeighted merges the two ranked lists with a fixed alpha: each
// signal's scores are min-max normalized into [0,1], then combined as
// alpha*dense + (1-alpha)*lexical per chunk.
func blendWeighted(dense, lexical []domain.RetrievedChunk, alpha float64, limit int) []domain.RetrievedChunk {
	type blended struct {
		chunk domain.RetrievedChunk
		score float64
	}

	acc := make(map[string]blended, len(dense)+len(lexical))
	add := func(hits []domain.RetrievedChunk, weight float64) {
		for i, norm := range normalizeScores(hits) {
			key := fmt.Sprintf("%s:%d", hits[i].Source, hits[i].ChunkID)
			entry, ok := acc[key]
			if !ok {
				entry.chunk = hits[i]
			}
			entry.score += weight * norm
			acc[key] = entry
		}
	}

	add(dense, alpha)
	add(lexical, 1-alpha)

	out := make([]domain.RetrievedChunk, 0, len(acc))
	for _, entry := range acc {
		chunk := entry.chunk
		chunk.Score = entry.score
		out = append(out, chunk)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].ChunkID < out[j].ChunkID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalizeScores(hits []domain.RetrievedChunk) []float64 {
	if len(hits) == 0 {
		return nil
	}
	minScore, maxScore := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < minScore {
			minScore = h.Score
		}
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	out := make([]float64, len(hits))
	span := maxScore - minScore
	for i, h := range hits {
		if span <= 0 {
			out[i] = 1
			continue
		}
		out[i] = (h.Score - minScore) / span
	}
	return out
}
