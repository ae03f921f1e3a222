package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultape/registro-scraper/internal/config"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memoryOnlyCache fails the Redis dial fast so tests exercise the fallback.
func memoryOnlyCache(t *testing.T, ttl time.Duration) *ResultCache {
	t.Helper()
	c := New(config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        1, // nothing listens here
		DialTimeout: 50 * time.Millisecond,
		CacheTTL:    ttl,
	}, quietLogger())
	require.Nil(t, c.client, "dial to a closed port must degrade to memory")
	return c
}

func TestCacheDegradesToMemory(t *testing.T) {
	c := memoryOnlyCache(t, time.Minute)
	defer c.Close()
	ctx := context.Background()

	_, ok := c.Get(ctx, "sunat:20100047218")
	assert.False(t, ok)

	c.Set(ctx, "sunat:20100047218", `{"estado":"ACTIVO"}`)
	val, ok := c.Get(ctx, "sunat:20100047218")
	assert.True(t, ok)
	assert.Equal(t, `{"estado":"ACTIVO"}`, val)
}

func TestCacheMemoryEntriesExpire(t *testing.T) {
	c := memoryOnlyCache(t, 10*time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "key", "value")
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *ResultCache
	ctx := context.Background()

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
	c.Set(ctx, "key", "value")
	assert.NoError(t, c.Close())
}
