package loader

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"venue-finder/internal/common/database"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/common/metrics"
	"venue-finder/internal/models"
)

const cacheKeyPrefix = "venue-finder:records:"

// CachedSource keeps the raw records of another source in redis so a
// restart inside the TTL skips the upstream read. Redis failures fall
// through to the upstream source.
type CachedSource struct {
	inner Source
	redis *database.RedisClient
	ttl   time.Duration
	log   logger.Logger
}

func NewCachedSource(inner Source, rdb *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedSource {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedSource{
		inner: inner,
		redis: rdb,
		ttl:   ttl,
		log:   log.WithFields(map[string]interface{}{"component": "record_cache", "source": inner.Name()}),
	}
}

func (c *CachedSource) Name() string { return c.inner.Name() }

func (c *CachedSource) key() string { return cacheKeyPrefix + c.inner.Name() }

func (c *CachedSource) Records(ctx context.Context) ([]models.VenueRecord, error) {
	if records, ok := c.lookup(ctx); ok {
		return records, nil
	}

	records, err := c.inner.Records(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		return records, nil
	}
	if err := c.redis.Set(ctx, c.key(), string(data), c.ttl); err != nil {
		c.log.Warn("record cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return records, nil
}

func (c *CachedSource) lookup(ctx context.Context) ([]models.VenueRecord, bool) {
	cached, err := c.redis.Get(ctx, c.key())
	switch {
	case stderrors.Is(err, redis.Nil):
		metrics.SourceCacheResults.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		metrics.SourceCacheResults.WithLabelValues("error").Inc()
		c.log.Warn("record cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var records []models.VenueRecord
	if err := json.Unmarshal([]byte(cached), &records); err != nil {
		metrics.SourceCacheResults.WithLabelValues("corrupt").Inc()
		c.log.Warn("record cache entry corrupt", map[string]interface{}{"error": err.Error()})
		_ = c.redis.Del(ctx, c.key())
		return nil, false
	}
	metrics.SourceCacheResults.WithLabelValues("hit").Inc()
	c.log.Debug("record cache hit", map[string]interface{}{"records": len(records)})
	return records, true
}
