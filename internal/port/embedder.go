package port

import (
	"context"

	"captionrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores and searches embedding vectors together with the
// document text and citation metadata of each chunk.
type VectorStore interface {
	// Upsert writes all items or none of them.
	Upsert(ctx context.Context, items []VectorItem) error

	// Search finds the k nearest vectors to the query, nearest first.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)

	// Count returns the number of vectors in the store.
	Count() (int, error)
}

// VectorItem represents a vector to be stored.
type VectorItem struct {
	ID       string                // Unique identifier
	Vector   []float32             // Embedding vector
	Document string                // Chunk text
	Metadata domain.RecordMetadata // Citation data
}

// VectorResult represents a search result.
type VectorResult struct {
	ID       string
	Score    float64 // Similarity score (higher is better)
	Document string
	Metadata domain.RecordMetadata
}
