package usecase

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"captionrag/internal/domain"
	"captionrag/internal/port"
	"captionrag/internal/prompt"
)

var unparsedValidation = domain.Validation{
	Relevance: domain.RelevanceUnknown,
	Comment:   "Could not parse validation",
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseValidation reads a {"relevance", "comment"} object from a model reply.
// Code fences and text around the object are tolerated. ok is false when no
// object with a relevance field can be decoded.
func ParseValidation(text string) (domain.Validation, bool) {
	text = strings.TrimSpace(text)
	if m := codeBlockRe.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.Validation{}, false
	}

	var raw struct {
		Relevance string `json:"relevance"`
		Comment   string `json:"comment"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return domain.Validation{}, false
	}

	var relevance domain.Relevance
	switch strings.ToLower(strings.TrimSpace(raw.Relevance)) {
	case "high":
		relevance = domain.RelevanceHigh
	case "medium":
		relevance = domain.RelevanceMedium
	case "low":
		relevance = domain.RelevanceLow
	case "":
		return domain.Validation{}, false
	default:
		relevance = domain.RelevanceUnknown
	}

	return domain.Validation{Relevance: relevance, Comment: raw.Comment}, true
}

// Validator rates each source against the answer and keeps the High ones.
type Validator struct {
	llm         port.LLM
	temperature float64
	logger      *zap.Logger
}

func NewValidator(llm port.LLM, temperature float64, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{llm: llm, temperature: temperature, logger: logger}
}

// Validate returns the sources rated High, in their original order, each
// carrying its validation.
func (v *Validator) Validate(ctx context.Context, question, answer string, sources []domain.Source) ([]domain.Source, error) {
	kept := make([]domain.Source, 0, len(sources))

	for _, source := range sources {
		validation, err := v.validateOne(ctx, question, answer, source)
		if err != nil {
			return nil, err
		}

		if validation.Relevance != domain.RelevanceHigh {
			v.logger.Debug("source dropped",
				zap.String("url", source.URL),
				zap.String("relevance", string(validation.Relevance)))
			continue
		}

		source.Validation = &validation
		kept = append(kept, source)
	}

	return kept, nil
}

func (v *Validator) validateOne(ctx context.Context, question, answer string, source domain.Source) (domain.Validation, error) {
	user, err := prompt.Render(prompt.Validate, prompt.ValidateData{
		Question: question,
		Answer:   answer,
		Chunk:    source.Text,
	})
	if err != nil {
		return domain.Validation{}, err
	}

	reply, err := v.llm.Complete(ctx, []port.Message{{Role: "user", Content: user}}, v.temperature)
	if err != nil {
		return domain.Validation{}, domain.NewProviderError("llm", "validate", err)
	}

	validation, ok := ParseValidation(reply)
	if !ok {
		v.logger.Warn("unparsable validation reply", zap.String("url", source.URL), zap.String("reply", reply))
		return unparsedValidation, nil
	}
	return validation, nil
}
