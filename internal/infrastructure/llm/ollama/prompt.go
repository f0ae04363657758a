package ollama

import (
	"fmt"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

func buildAnswerPrompt(question string, chunks []domain.RetrievedChunk) string {
	var contextBuilder strings.Builder
	for idx, chunk := range chunks {
		contextBuilder.WriteString(fmt.Sprintf(
			"Document %d (Source: %s, chunk %d of %d):\n%s\n\n",
			idx+1,
			chunk.Source,
			chunk.ChunkID+1,
			chunk.TotalChunks,
			chunk.Text,
		))
	}

	return fmt.Sprintf(`Answer the question using only the context below.
If the context does not contain the answer, say so directly.
Cite the source document names you used.

Question:
%s

Context:
%s`, question, contextBuilder.String())
}
