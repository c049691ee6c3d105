package port

import (
	"context"

	"captionrag/internal/domain"
)

// Retriever defines the interface for searching indexed content.
type Retriever interface {
	// Retrieve returns up to k candidates for the question, nearest first.
	Retrieve(ctx context.Context, question string, k int) ([]domain.Candidate, error)
}
