package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionrag/config"
	"captionrag/internal/domain"
)

func TestKey(t *testing.T) {
	base := Key("What is  caching?", 5, false, "idx:10")
	assert.Equal(t, base, Key("what is caching?", 5, false, "idx:10"))
	assert.NotEqual(t, base, Key("what is caching?", 3, false, "idx:10"))
	assert.NotEqual(t, base, Key("what is caching?", 5, true, "idx:10"))
	assert.NotEqual(t, base, Key("what is caching?", 5, false, "idx:11"))
	assert.NotEqual(t, base, Key("what is caching?", 5, false, "other:10"))
}

func TestMemoryCacheLRU(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Minute)

	require.NoError(t, c.Put(ctx, "a", domain.Answer{Answer: "A"}))
	require.NoError(t, c.Put(ctx, "b", domain.Answer{Answer: "B"}))

	// touch a so b becomes the oldest
	_, ok, _ := c.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, c.Put(ctx, "c", domain.Answer{Answer: "C"}))
	assert.Equal(t, 2, c.Size())

	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok, "b should have been evicted")

	got, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "A", got.Answer)
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "q", domain.Answer{Answer: "old"}))

	now = now.Add(2 * time.Minute)
	_, ok, _ := c.Get(ctx, "q")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	require.NoError(t, c.Put(ctx, "q", domain.Answer{}))

	c.Invalidate()
	_, ok, _ := c.Get(ctx, "q")
	assert.False(t, ok)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Cache

	c, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.Backend = "memory"
	c, err = NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	cfg.Backend = "memcached"
	_, err = NewFromConfig(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("CAPTIONRAG_TEST_REDIS")
	if addr == "" {
		t.Skip("CAPTIONRAG_TEST_REDIS not set")
	}

	ctx := context.Background()
	c, err := ConnectRedis(ctx, addr, "captionrag:test:", time.Minute)
	require.NoError(t, err)
	defer c.Close()

	key := Key("redis round trip", 5, false, "idx:1")
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.Answer{Answer: "yes", Sources: []domain.Source{{URL: "u", Start: 3}}}
	require.NoError(t, c.Put(ctx, key, want))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
