package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"captionrag/internal/domain"
)

// RedisCache stores answers as JSON strings that expire after ttl.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// ConnectRedis opens a client and checks the connection.
func ConnectRedis(ctx context.Context, addr, prefix string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCache(client, prefix, ttl), nil
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (domain.Answer, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Answer{}, false, nil
	}
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("error reading cached answer: %w", err)
	}

	var answer domain.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		return domain.Answer{}, false, fmt.Errorf("failed to decode cached answer: %w", err)
	}
	return answer, true, nil
}

func (r *RedisCache) Put(ctx context.Context, key string, answer domain.Answer) error {
	jsonData, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer to JSON: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("error caching answer: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
