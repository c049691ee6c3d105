package retriever

import (
	"context"
	"fmt"

	"captionrag/internal/domain"
	"captionrag/internal/port"
)

// SemanticRetriever embeds the question and returns its nearest records.
type SemanticRetriever struct {
	vectorStore port.VectorStore
	embedder    port.Embedder
}

func NewSemanticRetriever(vectorStore port.VectorStore, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
	}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.Candidate, error) {
	if r.vectorStore == nil || r.embedder == nil {
		return nil, fmt.Errorf("semantic search not available: embeddings not configured")
	}

	embeddings, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, domain.NewProviderError("embedding", "embed question", err)
	}
	if len(embeddings) == 0 {
		return nil, domain.NewProviderError("embedding", "embed question", fmt.Errorf("embedding returned empty result"))
	}

	results, err := r.vectorStore.Search(ctx, embeddings[0], k)
	if err != nil {
		return nil, domain.NewProviderError("vectorstore", "search", err)
	}

	candidates := make([]domain.Candidate, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, domain.Candidate{
			ID:       result.ID,
			Document: result.Document,
			Metadata: result.Metadata,
			Score:    result.Score,
		})
	}

	return candidates, nil
}
