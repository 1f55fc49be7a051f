// Package cache provides the building-insights cache.  Provider datasets
// are immutable for a given imagery pass, so a location resolved once does
// not need to hit the provider again for every re-selection; the cache is
// keyed by the 6-decimal coordinate pair.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
	"github.com/KlotzJesse/solar-potential/pkg/errors"
	"github.com/KlotzJesse/solar-potential/pkg/types/solar"
)

// InsightsCache stores provider datasets by location.  Get returns
// (nil, false, nil) on a miss; an error is returned only for backend or
// codec failures, never for absence.
type InsightsCache interface {
	Get(ctx context.Context, location solar.LatLng) (*solar.BuildingInsights, bool, error)
	Set(ctx context.Context, location solar.LatLng, insights *solar.BuildingInsights) error
}

// redisCache is the Redis-backed implementation with a JSON codec.
type redisCache struct {
	client *redis.Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
}

// RedisOptions carries the construction parameters for NewRedisCache.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	KeyPrefix   string
	TTL         time.Duration
}

// NewRedisCache constructs an InsightsCache backed by the Redis instance at
// opts.Addr.  The connection is verified with a ping so a misconfigured
// address fails at startup rather than on the first request.
func NewRedisCache(ctx context.Context, opts RedisOptions, logger logging.Logger) (InsightsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis ping failed")
	}
	return &redisCache{
		client: client,
		logger: logger.Named("cache.redis"),
		prefix: opts.KeyPrefix,
		ttl:    opts.TTL,
	}, nil
}

func (c *redisCache) key(location solar.LatLng) string {
	return c.prefix + location.Key()
}

func (c *redisCache) Get(ctx context.Context, location solar.LatLng) (*solar.BuildingInsights, bool, error) {
	data, err := c.client.Get(ctx, c.key(location)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "redis get failed")
	}
	var insights solar.BuildingInsights
	if err := json.Unmarshal(data, &insights); err != nil {
		// A corrupt entry is treated as a miss so the provider path can
		// repopulate it; the event is still worth a warning.
		c.logger.Warn("discarding corrupt cache entry",
			logging.String("key", c.key(location)), logging.Err(err))
		return nil, false, nil
	}
	return &insights, true, nil
}

func (c *redisCache) Set(ctx context.Context, location solar.LatLng, insights *solar.BuildingInsights) error {
	data, err := json.Marshal(insights)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode insights")
	}
	if err := c.client.Set(ctx, c.key(location), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis set failed")
	}
	return nil
}

// memoryCache is the in-process fallback used when no Redis address is
// configured.  Entries expire lazily on read.
type memoryCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time

	entries map[string]memoryEntry
}

type memoryEntry struct {
	insights  *solar.BuildingInsights
	expiresAt time.Time
}

// NewMemoryCache constructs an in-process InsightsCache with the given TTL.
// A TTL of zero disables expiry.
func NewMemoryCache(ttl time.Duration) InsightsCache {
	return &memoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *memoryCache) Get(_ context.Context, location solar.LatLng) (*solar.BuildingInsights, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[location.Key()]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, location.Key())
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.insights, true, nil
}

func (c *memoryCache) Set(_ context.Context, location solar.LatLng, insights *solar.BuildingInsights) error {
	c.mu.Lock()
	c.entries[location.Key()] = memoryEntry{
		insights:  insights,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}
