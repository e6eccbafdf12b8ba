package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCache_UnavailableDegradesToMiss(t *testing.T) {
	c := NewRedisCache[int](unreachableClient(t), "glreport:test:", time.Minute)

	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	c.Delete("a")
	assert.Equal(t, 0, c.Size())
}

func TestRedisCache_SatisfiesCache(t *testing.T) {
	var _ Cache[string] = NewRedisCache[string](unreachableClient(t), "p:", time.Second)
}

func TestNewRedisClient_Errors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "http://localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = NewRedisClient(ctx, "redis://127.0.0.1:1/0?dial_timeout=100ms&max_retries=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
