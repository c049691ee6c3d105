package cache

import (
	"context"
	"fmt"

	"captionrag/config"
	"captionrag/internal/port"
)

// NewFromConfig returns the configured answer cache, or nil when caching is off.
func NewFromConfig(ctx context.Context, cfg config.CacheConfig) (port.AnswerCache, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(cfg.Size, cfg.TTL), nil
	case "redis":
		c, err := ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
