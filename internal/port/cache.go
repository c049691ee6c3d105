package port

import (
	"context"

	"captionrag/internal/domain"
)

// AnswerCache stores synthesized answers keyed by request.
type AnswerCache interface {
	Get(ctx context.Context, key string) (domain.Answer, bool, error)
	Put(ctx context.Context, key string, answer domain.Answer) error
}
