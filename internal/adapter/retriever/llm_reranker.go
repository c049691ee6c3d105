package retriever

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"captionrag/internal/domain"
	"captionrag/internal/port"
	"captionrag/internal/prompt"
)

// LLMReranker asks a completion model to pick the most useful candidates.
type LLMReranker struct {
	llm         port.LLM
	temperature float64
	logger      *zap.Logger
}

func NewLLMReranker(llm port.LLM, temperature float64, logger *zap.Logger) *LLMReranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMReranker{
		llm:         llm,
		temperature: temperature,
		logger:      logger,
	}
}

// Rerank returns zero-based indices into documents, most useful first. The
// result holds at most topK indices and may hold fewer. The prompt asks for at
// most len(documents) picks whatever topK is.
func (r *LLMReranker) Rerank(ctx context.Context, question string, documents []string, topK int) ([]int, error) {
	if len(documents) == 0 || topK <= 0 {
		return []int{}, nil
	}
	if topK > len(documents) {
		topK = len(documents)
	}

	system, err := prompt.Render(prompt.RerankSystem, nil)
	if err != nil {
		return nil, err
	}
	user, err := prompt.Render(prompt.Rerank, prompt.RerankData{
		Question: question,
		Segments: documents,
		TopK:     topK,
	})
	if err != nil {
		return nil, err
	}

	response, err := r.llm.Complete(ctx, []port.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, r.temperature)
	if err != nil {
		return nil, domain.NewProviderError("llm", "rerank", err)
	}

	indices, skipped := ParseIndices(response, len(documents))
	if len(skipped) > 0 {
		r.logger.Warn("rerank response had unusable tokens",
			zap.Strings("skipped", skipped),
			zap.Int("usable", len(indices)),
			zap.String("response", response))
	}

	if len(indices) > topK {
		indices = indices[:topK]
	}
	return indices, nil
}

func (r *LLMReranker) ModelName() string {
	return r.llm.ModelName()
}

// ParseIndex converts one 1-based token of a ranking response to a zero-based
// index. ok is false when the token is not an integer in [1, n].
func ParseIndex(token string, n int) (index int, ok bool) {
	token = strings.TrimSpace(token)
	token = strings.TrimSuffix(token, ".")
	v, err := strconv.Atoi(token)
	if err != nil || v < 1 || v > n {
		return 0, false
	}
	return v - 1, true
}

// ParseIndices splits a comma-separated ranking response into zero-based
// indices, keeping the model's order. Tokens that are not integers, out of
// range or repeated are returned in skipped.
func ParseIndices(response string, n int) (indices []int, skipped []string) {
	indices = []int{}
	seen := make(map[int]bool)

	for _, token := range strings.Split(strings.TrimSpace(response), ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		idx, ok := ParseIndex(token, n)
		if !ok || seen[idx] {
			skipped = append(skipped, strings.TrimSpace(token))
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	return indices, skipped
}
