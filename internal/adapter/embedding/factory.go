package embedding

import (
	"fmt"

	"captionrag/config"
	"captionrag/internal/port"
)

// NewFromConfig builds the embedder named by cfg.Provider. The configured
// dimension applies to the mock provider and to models with no known size.
func NewFromConfig(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := []Option{
		WithRateLimit(cfg.RequestsPerSecond),
		WithTimeout(cfg.Timeout),
	}
	if _, known := KnownDimension(cfg.Model); !known {
		opts = append(opts, WithDimension(cfg.Dimension))
	}

	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			return NewOpenAICompatibleEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, opts...)
		}
		return NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, opts...)
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL, opts...)
	case "mock":
		return NewMockEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
