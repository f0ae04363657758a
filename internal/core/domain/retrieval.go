package domain

// SearchFilter restricts retrieval to one source document. An empty
// Source means the whole corpus.
type SearchFilter struct {
	Source string
}

// SparseVector is the lexical (BM25-style) representation of a text,
// term-hash indices with their weights.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

func (v SparseVector) IsEmpty() bool { return len(v.Indices) == 0 }

// RetrievedChunk is one ranked hit from the dense/lexical indexes.
type RetrievedChunk struct {
	Source      string  `json:"source"`
	ChunkID     int     `json:"chunk_id"`
	TotalChunks int     `json:"total_chunks"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
}

// Answer is the generated response plus the chunks it was built from.
type Answer struct {
	Text    string           `json:"text"`
	Sources []RetrievedChunk `json:"sources"`
}
