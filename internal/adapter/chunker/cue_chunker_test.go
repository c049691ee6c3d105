package chunker

import (
	"fmt"
	"strings"
	"testing"

	"captionrag/internal/domain"
)

// fixedTokenizer reports a preset count per text.
type fixedTokenizer map[string]int

func (f fixedTokenizer) CountTokens(text string) int {
	return f[text]
}

type fieldTokenizer struct{}

func (fieldTokenizer) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func cue(video string, start int, text string) domain.Cue {
	return domain.Cue{
		VideoID: video,
		Start:   start,
		End:     start + 2,
		Text:    text,
		URL:     fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", video, start),
	}
}

func TestCueChunkerBoundaries(t *testing.T) {
	tok := fixedTokenizer{"one": 60, "two": 60, "three": 60}
	chunker := NewCueChunker(100, tok)

	chunks := chunker.Chunk([]domain.Cue{
		cue("v", 0, "one"),
		cue("v", 2, "two"),
		cue("v", 4, "three"),
	})

	// 60+60 > 100 flushes before every cue after the first.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"one", "two", "three"} {
		if chunks[i].Text != want || chunks[i].CueCount != 1 {
			t.Errorf("chunk %d: got %q (%d cues)", i, chunks[i].Text, chunks[i].CueCount)
		}
	}

	// Same inputs, same boundaries.
	again := chunker.Chunk([]domain.Cue{cue("v", 0, "one"), cue("v", 2, "two"), cue("v", 4, "three")})
	if len(again) != len(chunks) {
		t.Errorf("expected deterministic boundaries")
	}
}

func TestCueChunkerMergesWithinBudget(t *testing.T) {
	tok := fixedTokenizer{"a": 50, "b": 50, "c": 100}
	chunker := NewCueChunker(180, tok)

	chunks := chunker.Chunk([]domain.Cue{cue("v", 0, "a"), cue("v", 2, "b"), cue("v", 4, "c")})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	first := chunks[0]
	if first.Text != "a b" || first.CueCount != 2 {
		t.Errorf("unexpected first chunk: %+v", first)
	}
	if first.Start != 0 || first.End != 4 {
		t.Errorf("expected 0-4, got %d-%d", first.Start, first.End)
	}
	if first.URL != "https://www.youtube.com/watch?v=v&t=0s" {
		t.Errorf("expected URL anchored at start, got %s", first.URL)
	}
	if chunks[1].Start != 4 || chunks[1].URL != "https://www.youtube.com/watch?v=v&t=4s" {
		t.Errorf("unexpected second chunk: %+v", chunks[1])
	}
}

func TestCueChunkerExactBudget(t *testing.T) {
	tok := fixedTokenizer{"a": 50, "b": 50}
	chunks := NewCueChunker(100, tok).Chunk([]domain.Cue{cue("v", 0, "a"), cue("v", 2, "b")})
	if len(chunks) != 1 {
		t.Errorf("expected a chunk filling the budget exactly, got %d chunks", len(chunks))
	}
}

func TestCueChunkerOversizedCue(t *testing.T) {
	tok := fixedTokenizer{"small": 10, "huge": 500, "tail": 10}
	chunks := NewCueChunker(100, tok).Chunk([]domain.Cue{
		cue("v", 0, "small"),
		cue("v", 2, "huge"),
		cue("v", 4, "tail"),
	})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].Text != "huge" || chunks[1].CueCount != 1 {
		t.Errorf("expected oversized cue alone, got %+v", chunks[1])
	}
}

func TestCueChunkerOversizedFirstCue(t *testing.T) {
	tok := fixedTokenizer{"huge": 500, "next": 10}
	chunks := NewCueChunker(100, tok).Chunk([]domain.Cue{cue("v", 0, "huge"), cue("v", 2, "next")})
	if len(chunks) != 2 || chunks[0].Text != "huge" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestCueChunkerVideoBoundary(t *testing.T) {
	tok := fixedTokenizer{"a": 1, "b": 1, "c": 1}
	chunks := NewCueChunker(100, tok).Chunk([]domain.Cue{
		cue("v1", 0, "a"),
		cue("v1", 2, "b"),
		cue("v2", 0, "c"),
	})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].VideoID != "v1" || chunks[1].VideoID != "v2" {
		t.Errorf("chunks should not span videos: %+v", chunks)
	}
}

func TestCueChunkerEmpty(t *testing.T) {
	chunks := NewCueChunker(100, fixedTokenizer{}).Chunk(nil)
	if chunks == nil || len(chunks) != 0 {
		t.Errorf("expected empty slice, got %#v", chunks)
	}
}

func TestCueChunkerPreservesText(t *testing.T) {
	tokenizer := fieldTokenizer{}
	chunker := NewCueChunker(12, tokenizer)

	var cues []domain.Cue
	var texts []string
	for i := 0; i < 40; i++ {
		text := strings.Repeat(fmt.Sprintf("word%d ", i), i%7+1)
		text = strings.TrimSpace(text)
		cues = append(cues, cue("v", i*3, text))
		texts = append(texts, text)
	}

	chunks := chunker.Chunk(cues)

	var joined []string
	total := 0
	for _, c := range chunks {
		joined = append(joined, c.Text)
		total += c.CueCount
		if c.CueCount > 1 && tokenizer.CountTokens(c.Text) > 12 {
			t.Errorf("chunk over budget: %q", c.Text)
		}
	}

	if strings.Join(joined, " ") != strings.Join(texts, " ") {
		t.Error("chunk texts should concatenate to the cue texts in order")
	}
	if total != len(cues) {
		t.Errorf("expected every cue assigned once, got %d of %d", total, len(cues))
	}
}
