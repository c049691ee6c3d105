package analyzer

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"go.uber.org/zap"
)

type encoder interface {
	EncodeSingle(input string, addSpecialTokensOpt ...bool) (*tokenizer.Encoding, error)
}

// HFTokenizer counts tokens with a HuggingFace tokenizer.json, so chunk
// budgets match the embedding model's own vocabulary.
type HFTokenizer struct {
	tk       encoder
	fallback *WordTokenizer
	logger   *zap.Logger
}

// NewHFTokenizer loads a tokenizer from a tokenizer.json file.
func NewHFTokenizer(path string, logger *zap.Logger) (*HFTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}
	return newHFTokenizer(tk, logger), nil
}

func newHFTokenizer(tk encoder, logger *zap.Logger) *HFTokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HFTokenizer{tk: tk, fallback: NewWordTokenizer(), logger: logger}
}

// CountTokens returns the number of token ids, without special tokens. Text
// the tokenizer rejects is counted with the word estimate, never as zero.
func (t *HFTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	encoding, err := t.tk.EncodeSingle(text, false)
	if err != nil {
		n := t.fallback.CountTokens(text)
		if n == 0 {
			n = 1
		}
		t.logger.Warn("tokenizer rejected text, using word estimate",
			zap.Int("estimate", n), zap.Error(err))
		return n
	}
	return len(encoding.GetIds())
}
