package analyzer

import (
	"fmt"

	"go.uber.org/zap"

	"captionrag/config"
	"captionrag/internal/port"
)

// NewFromConfig returns the budget tokenizer selected in the chunking config.
func NewFromConfig(cfg config.ChunkingConfig, logger *zap.Logger) (port.Tokenizer, error) {
	switch cfg.Tokenizer {
	case "", "tiktoken":
		return NewTiktokenTokenizer(cfg.Encoding)
	case "words":
		return NewWordTokenizer(), nil
	case "hf":
		return NewHFTokenizer(cfg.TokenizerFile, logger)
	default:
		return nil, fmt.Errorf("unsupported tokenizer: %s", cfg.Tokenizer)
	}
}
