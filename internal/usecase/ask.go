package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"captionrag/internal/adapter/cache"
	"captionrag/internal/domain"
	"captionrag/internal/port"
)

// AskConfig holds the per-pipeline settings of AskUseCase. Requests for more
// than MaxTopK sources are rejected; zero means 100.
type AskConfig struct {
	DefaultTopK     int
	MaxTopK         int
	Validate        bool
	NoContentAnswer string
}

// AskRequest is one question. Zero TopK and nil Validate use the defaults.
type AskRequest struct {
	Question string
	TopK     int
	Validate *bool
}

// indexVersioner names the current contents of the index.
type indexVersioner interface {
	IndexVersion() (string, error)
}

// AskUseCase runs retrieve, rerank, synthesize and the optional validation.
type AskUseCase struct {
	retrieve  *RetrieveUseCase
	synth     *Synthesizer
	validator *Validator
	cache     port.AnswerCache
	index     indexVersioner
	cfg       AskConfig
	logger    *zap.Logger
}

// NewAskUseCase creates the question pipeline. validator, answerCache and
// index may be nil; caching needs both answerCache and index.
func NewAskUseCase(
	retrieve *RetrieveUseCase,
	synth *Synthesizer,
	validator *Validator,
	answerCache port.AnswerCache,
	index indexVersioner,
	cfg AskConfig,
	logger *zap.Logger,
) *AskUseCase {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = 100
	}
	if cfg.DefaultTopK > cfg.MaxTopK {
		cfg.DefaultTopK = cfg.MaxTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AskUseCase{
		retrieve:  retrieve,
		synth:     synth,
		validator: validator,
		cache:     answerCache,
		index:     index,
		cfg:       cfg,
		logger:    logger,
	}
}

// AnswerQuestion answers with the default validation setting.
func (u *AskUseCase) AnswerQuestion(ctx context.Context, question string, topK int) (domain.Answer, error) {
	return u.Ask(ctx, AskRequest{Question: question, TopK: topK})
}

func (u *AskUseCase) Ask(ctx context.Context, req AskRequest) (domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return domain.Answer{}, domain.ErrEmptyQuestion
	}

	topK := req.TopK
	if topK <= 0 {
		topK = u.cfg.DefaultTopK
	}
	if topK > u.cfg.MaxTopK {
		return domain.Answer{}, fmt.Errorf("%w: %d, limit is %d", domain.ErrTopKTooLarge, topK, u.cfg.MaxTopK)
	}
	validate := u.cfg.Validate
	if req.Validate != nil {
		validate = *req.Validate
	}
	if validate && u.validator == nil {
		validate = false
	}

	key, cacheable := u.cacheKey(question, topK, validate)
	if cacheable {
		if answer, ok, err := u.cache.Get(ctx, key); err != nil {
			u.logger.Warn("answer cache read failed", zap.Error(err))
		} else if ok {
			u.logger.Debug("answer cache hit", zap.String("question", question))
			return answer, nil
		}
	}

	answer, err := u.answer(ctx, question, topK, validate)
	if err != nil {
		return domain.Answer{}, err
	}

	if cacheable {
		if err := u.cache.Put(ctx, key, answer); err != nil {
			u.logger.Warn("answer cache write failed", zap.Error(err))
		}
	}
	return answer, nil
}

func (u *AskUseCase) answer(ctx context.Context, question string, topK int, validate bool) (domain.Answer, error) {
	result, err := u.retrieve.Retrieve(ctx, question, topK)
	if err != nil {
		return domain.Answer{}, err
	}

	if result.Retrieved == 0 {
		u.logger.Info("no candidates for question", zap.String("question", question))
		return u.noContent(), nil
	}
	if len(result.Selected) == 0 {
		u.logger.Warn("reranker selected no candidates", zap.Int("candidates", result.Retrieved))
		return u.noContent(), nil
	}

	answer, err := u.synth.Synthesize(ctx, question, result.Selected)
	if err != nil {
		return domain.Answer{}, err
	}

	if validate {
		kept, err := u.validator.Validate(ctx, question, answer.Answer, answer.Sources)
		if err != nil {
			return domain.Answer{}, err
		}
		u.logger.Debug("validated sources", zap.Int("kept", len(kept)), zap.Int("total", len(answer.Sources)))
		answer.Sources = kept
	}

	return answer, nil
}

func (u *AskUseCase) noContent() domain.Answer {
	return domain.Answer{Answer: u.cfg.NoContentAnswer, Sources: []domain.Source{}}
}

func (u *AskUseCase) cacheKey(question string, topK int, validate bool) (string, bool) {
	if u.cache == nil || u.index == nil {
		return "", false
	}
	version, err := u.index.IndexVersion()
	if err != nil {
		u.logger.Warn("index version unavailable, skipping answer cache", zap.Error(err))
		return "", false
	}
	return cache.Key(question, topK, validate, version), true
}
