package usecase

import (
	"context"

	"go.uber.org/zap"

	"captionrag/internal/domain"
	"captionrag/internal/port"
)

// RetrieveUseCase over-fetches candidates and lets the reranker pick the final set.
type RetrieveUseCase struct {
	retriever port.Retriever
	reranker  port.Reranker
	retrieveK int
	logger    *zap.Logger
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(retriever port.Retriever, reranker port.Reranker, retrieveK int, logger *zap.Logger) *RetrieveUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrieveUseCase{
		retriever: retriever,
		reranker:  reranker,
		retrieveK: retrieveK,
		logger:    logger,
	}
}

// RetrieveResult holds the candidates chosen for one question.
type RetrieveResult struct {
	Retrieved int
	Selected  []domain.Candidate
}

// Retrieve returns up to topK candidates in reranked order. When the store
// has nothing for the question the reranker is not called.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, question string, topK int) (*RetrieveResult, error) {
	k := u.retrieveK
	if k < topK {
		k = topK
	}

	candidates, err := u.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	result := &RetrieveResult{Retrieved: len(candidates)}
	if len(candidates) == 0 {
		return result, nil
	}

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Document
	}

	indices, err := u.reranker.Rerank(ctx, question, documents, topK)
	if err != nil {
		return nil, err
	}

	result.Selected = make([]domain.Candidate, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		result.Selected = append(result.Selected, candidates[idx])
	}

	u.logger.Debug("retrieved",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(result.Selected)),
		zap.Int("top_k", topK))

	return result, nil
}
