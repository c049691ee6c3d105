package port

import "context"

// Message is one chat turn sent to a completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLM represents a language model for text generation.
type LLM interface {
	// Complete returns the model's reply to messages at the given temperature.
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// Reranker orders candidate documents by usefulness for a question.
type Reranker interface {
	// Rerank returns zero-based indices into documents, most useful first,
	// at most topK of them.
	Rerank(ctx context.Context, question string, documents []string, topK int) ([]int, error)

	// ModelName returns the name of the reranking model.
	ModelName() string
}
