package usecase

import (
	"context"
	"strings"
	"sync"

	"captionrag/internal/domain"
	"captionrag/internal/port"
)

// scriptedLLM answers rerank, answer and validation prompts separately.
type scriptedLLM struct {
	mu       sync.Mutex
	rerank   string
	answer   string
	validate func(chunk string) string
	err      error

	rerankCalls   int
	answerCalls   int
	validateCalls int
	temps         []float64
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []port.Message, temperature float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temps = append(s.temps, temperature)

	if s.err != nil {
		return "", s.err
	}

	user := messages[len(messages)-1].Content
	switch {
	case strings.Contains(messages[0].Content, "ranking assistant"):
		s.rerankCalls++
		return s.rerank, nil
	case strings.Contains(user, "Evaluate how relevant"):
		s.validateCalls++
		if s.validate == nil {
			return `{"relevance": "High", "comment": "ok"}`, nil
		}
		return s.validate(user), nil
	default:
		s.answerCalls++
		return s.answer, nil
	}
}

func (s *scriptedLLM) ModelName() string { return "scripted" }

type countingEmbedder struct {
	port.Embedder
	calls []int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, len(texts))
	if e.err != nil {
		return nil, e.err
	}
	return e.Embedder.Embed(ctx, texts)
}

type fakeSource struct {
	videos []domain.VideoRef
	tracks map[string]domain.CaptionTrack
	errs   map[string]error
}

func (f *fakeSource) ListVideos(ctx context.Context, playlistRef string) ([]domain.VideoRef, error) {
	return f.videos, nil
}

func (f *fakeSource) CaptionTrack(ctx context.Context, video domain.VideoRef) (domain.CaptionTrack, error) {
	if err, ok := f.errs[video.ID]; ok {
		return domain.CaptionTrack{}, err
	}
	track, ok := f.tracks[video.ID]
	if !ok {
		return domain.CaptionTrack{}, domain.ErrNoCaptions
	}
	return track, nil
}

type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) int { return len(strings.Fields(text)) }

func rawCues(texts ...string) []domain.RawCue {
	cues := make([]domain.RawCue, len(texts))
	for i, text := range texts {
		cues[i] = domain.RawCue{
			Start: formatSeconds(i * 5),
			End:   formatSeconds(i*5 + 5),
			Text:  text,
		}
	}
	return cues
}

func formatSeconds(s int) string {
	return strings.Join([]string{pad(s / 3600), pad(s / 60 % 60), pad(s % 60)}, ":") + ".000"
}

func pad(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
