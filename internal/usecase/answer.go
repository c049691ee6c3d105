package usecase

import (
	"context"
	"fmt"
	"strings"

	"captionrag/internal/domain"
	"captionrag/internal/port"
	"captionrag/internal/prompt"
)

// Synthesizer writes an answer grounded in the selected caption chunks.
type Synthesizer struct {
	llm          port.LLM
	temperature  float64
	thumbnailURL string
}

// NewSynthesizer creates a synthesizer. thumbnailURL is a fmt pattern taking
// the video id; empty disables thumbnails.
func NewSynthesizer(llm port.LLM, temperature float64, thumbnailURL string) *Synthesizer {
	return &Synthesizer{
		llm:          llm,
		temperature:  temperature,
		thumbnailURL: thumbnailURL,
	}
}

// BuildContext renders each candidate as its text followed by a watch link,
// separated by blank lines, and returns the matching sources.
func (s *Synthesizer) BuildContext(candidates []domain.Candidate) (string, []domain.Source) {
	blocks := make([]string, len(candidates))
	sources := make([]domain.Source, len(candidates))

	for i, c := range candidates {
		blocks[i] = fmt.Sprintf("%s\n[Watch](%s)", c.Document, c.Metadata.URL)

		source := domain.Source{
			Text:    c.Document,
			URL:     c.Metadata.URL,
			Start:   c.Metadata.Start,
			End:     c.Metadata.End,
			VideoID: c.Metadata.VideoID,
		}
		if s.thumbnailURL != "" && c.Metadata.VideoID != "" {
			source.ThumbnailURL = fmt.Sprintf(s.thumbnailURL, c.Metadata.VideoID)
		}
		sources[i] = source
	}

	return strings.Join(blocks, "\n\n"), sources
}

// Synthesize asks the model to answer from the candidates only.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, candidates []domain.Candidate) (domain.Answer, error) {
	captions, sources := s.BuildContext(candidates)

	system, err := prompt.Render(prompt.AnswerSystem, nil)
	if err != nil {
		return domain.Answer{}, err
	}
	user, err := prompt.Render(prompt.Answer, prompt.AnswerData{Question: question, Context: captions})
	if err != nil {
		return domain.Answer{}, err
	}

	text, err := s.llm.Complete(ctx, []port.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, s.temperature)
	if err != nil {
		return domain.Answer{}, domain.NewProviderError("llm", "answer", err)
	}

	return domain.Answer{
		Answer:  strings.TrimSpace(text),
		Sources: sources,
	}, nil
}
