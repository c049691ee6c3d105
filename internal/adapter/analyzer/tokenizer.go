package analyzer

import (
	"strings"
	"unicode"
)

// WordTokenizer estimates LLM token counts from word counts. It needs no
// model files and is the default budget tokenizer for chunking.
type WordTokenizer struct {
	ratio float64
}

// NewWordTokenizer creates a WordTokenizer using ~1.3 tokens per word.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{ratio: 1.3}
}

// CountTokens returns an approximate token count for LLM budget estimation.
func (t *WordTokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	// Rough estimate: average word is about 1.3 tokens
	return int(float64(len(words)) * t.ratio)
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\'' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
