package chunker

import (
	"strings"

	"captionrag/internal/domain"
	"captionrag/internal/port"
)

const DefaultMaxTokens = 180

// CueChunker packs consecutive cues into chunks of at most maxTokens tokens.
// Packing is greedy and order-preserving. A cue larger than the budget on its
// own becomes a single-cue chunk.
type CueChunker struct {
	maxTokens int
	tokenizer port.Tokenizer
}

func NewCueChunker(maxTokens int, tokenizer port.Tokenizer) *CueChunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &CueChunker{
		maxTokens: maxTokens,
		tokenizer: tokenizer,
	}
}

func (c *CueChunker) Chunk(cues []domain.Cue) []domain.Chunk {
	chunks := []domain.Chunk{}
	var buf []domain.Cue
	running := 0

	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, buildChunk(buf))
			buf = nil
			running = 0
		}
	}

	for _, cue := range cues {
		if len(buf) > 0 && buf[0].VideoID != cue.VideoID {
			flush()
		}

		tokens := c.tokenizer.CountTokens(cue.Text)
		if len(buf) > 0 && running+tokens > c.maxTokens {
			flush()
		}

		buf = append(buf, cue)
		running += tokens
	}
	flush()

	return chunks
}

func buildChunk(cues []domain.Cue) domain.Chunk {
	texts := make([]string, len(cues))
	for i, cue := range cues {
		texts[i] = cue.Text
	}

	first, last := cues[0], cues[len(cues)-1]
	return domain.Chunk{
		VideoID:  first.VideoID,
		Start:    first.Start,
		End:      last.End,
		Text:     strings.Join(texts, " "),
		URL:      first.URL,
		CueCount: len(cues),
	}
}
