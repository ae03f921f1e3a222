package scraper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/consultape/registro-scraper/internal/cache"
)

// LookupStrategy is one site's per-key extraction capability: drive the
// browser to the key's result state, then pull the payload out of it.
type LookupStrategy interface {
	Name() string
	Navigate(ctx context.Context, key string) error
	Extract(ctx context.Context, key string) (interface{}, error)
}

// Batch iterates the input key set strictly in order, one attempt at a time,
// isolating per-key failures: a failed key is recorded and logged, and the
// loop moves on. Only fatal errors and operator interrupts abort the batch.
type Batch struct {
	strategy LookupStrategy
	store    *Store
	cache    *cache.ResultCache
	limiter  *rate.Limiter
	logger   *logrus.Entry
}

// NewBatch creates a batch processor. resultCache may be nil. keysPerMinute
// paces successive attempts so the target site is not hammered.
func NewBatch(strategy LookupStrategy, store *Store, resultCache *cache.ResultCache, keysPerMinute int, logger *logrus.Logger) *Batch {
	limit := rate.Inf
	if keysPerMinute > 0 {
		limit = rate.Limit(float64(keysPerMinute) / 60.0)
	}
	return &Batch{
		strategy: strategy,
		store:    store,
		cache:    resultCache,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.WithField("component", "batch"),
	}
}

// Name returns the underlying strategy name.
func (b *Batch) Name() string {
	return b.strategy.Name()
}

// Run processes every key. Each record reaches a terminal status before the
// next key starts; an interrupt mid-attempt leaves that record pending and
// returns the cancellation to the session.
func (b *Batch) Run(ctx context.Context) error {
	records := b.store.Records()
	if len(records) == 0 {
		return fmt.Errorf("%s strategy: %w", b.strategy.Name(), ErrNoKeys)
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}

		b.logger.WithField("key", rec.Key).Infof("Processing key %d/%d", i+1, len(records))

		payload, err := b.attempt(ctx, rec.Key)
		if err != nil {
			// An interrupt that aborted the attempt is not a per-key
			// failure; hand it to the session's failure path.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if IsFatal(err) {
				return err
			}
			b.store.MarkFailed(i)
			b.logger.WithError(err).WithField("key", rec.Key).Error("Failed to process key")
			continue
		}

		b.store.MarkSuccess(i, payload)
		b.logger.WithField("key", rec.Key).Info("Key processed successfully")
	}

	return nil
}

// attempt resolves one key: cache lookup first, then navigate and extract.
func (b *Batch) attempt(ctx context.Context, key string) (interface{}, error) {
	cacheKey := fmt.Sprintf("%s:%s", b.strategy.Name(), key)
	if cached, ok := b.cache.Get(ctx, cacheKey); ok {
		var payload interface{}
		if err := json.Unmarshal([]byte(cached), &payload); err == nil {
			b.logger.WithField("key", key).Info("Key resolved from cache")
			return payload, nil
		}
		b.logger.WithField("key", key).Warn("Discarding unreadable cache entry")
	}

	if err := b.strategy.Navigate(ctx, key); err != nil {
		return nil, err
	}

	payload, err := b.strategy.Extract(ctx, key)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(payload); err == nil {
		b.cache.Set(ctx, cacheKey, string(encoded))
	}

	return payload, nil
}
