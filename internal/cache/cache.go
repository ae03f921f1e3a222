package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/consultape/registro-scraper/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ResultCache caches extracted payloads by lookup key so a re-run with an
// overlapping key set does not drive the browser again for keys that were
// already resolved. Redis-backed with an in-memory fallback, and entirely
// optional: a nil *ResultCache is safe to call.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry

	memCache map[string]cacheItem
	memMutex sync.RWMutex
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// New creates a result cache. When Redis is unreachable the cache degrades
// to memory-only and the run continues.
func New(cfg config.RedisConfig, logger *logrus.Logger) *ResultCache {
	log := logger.WithField("component", "cache")

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis connection failed, caching in memory only")
		client = nil
	} else {
		log.Info("Redis connection established")
	}

	return &ResultCache{
		client:   client,
		ttl:      cfg.CacheTTL,
		logger:   log,
		memCache: make(map[string]cacheItem),
	}
}

// Get retrieves a cached payload for a key.
func (c *ResultCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}

	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err == nil {
			c.logger.WithField("key", key).Debug("Cache hit (Redis)")
			return val, true
		}
		if err != redis.Nil {
			c.logger.WithError(err).WithField("key", key).Warn("Redis get error, falling back to memory cache")
		}
	}

	c.memMutex.RLock()
	item, exists := c.memCache[key]
	c.memMutex.RUnlock()

	if !exists {
		return "", false
	}
	if time.Now().After(item.expiresAt) {
		c.memMutex.Lock()
		delete(c.memCache, key)
		c.memMutex.Unlock()
		return "", false
	}

	c.logger.WithField("key", key).Debug("Cache hit (memory)")
	return item.value, true
}

// Set stores an extracted payload for a key.
func (c *ResultCache) Set(ctx context.Context, key, value string) {
	if c == nil {
		return
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, value, c.ttl).Err(); err == nil {
			c.logger.WithField("key", key).Debug("Cache set (Redis)")
			return
		} else {
			c.logger.WithError(err).WithField("key", key).Warn("Redis set error, falling back to memory cache")
		}
	}

	c.memMutex.Lock()
	c.memCache[key] = cacheItem{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.memMutex.Unlock()

	c.logger.WithField("key", key).Debug("Cache set (memory)")
}

// Close releases the Redis connection if one was established.
func (c *ResultCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
