// Package cache keeps recently used dashboard configurations in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/onboarder/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by Lookup when the id is not cached.
var ErrMiss = errors.New("cache: miss")

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = time.Hour

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Loader fetches a record from the source of truth.
type Loader func(ctx context.Context, id string) (store.ConfigRecord, error)

// Cache is a read-through cache of configuration records. A nil *Cache is
// valid and caches nothing.
type Cache struct {
	client client
	ttl    time.Duration
	logger *zap.Logger
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, timeout time.Duration) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func New(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Cache {
	return newCache(rdb, ttl, logger)
}

func newCache(c client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: c, ttl: ttl, logger: logger.Named("cache")}
}

func key(id string) string {
	return "onboarder:config:" + id
}

// Lookup returns the cached record or ErrMiss.
func (c *Cache) Lookup(ctx context.Context, id string) (store.ConfigRecord, error) {
	if c == nil {
		return store.ConfigRecord{}, ErrMiss
	}
	val, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.ConfigRecord{}, ErrMiss
	}
	if err != nil {
		return store.ConfigRecord{}, fmt.Errorf("redis get: %w", err)
	}
	var rec store.ConfigRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		// A corrupt entry is treated as absent and replaced on the next Put.
		c.logger.Warn("dropping undecodable cache entry", zap.String("id", id), zap.Error(err))
		return store.ConfigRecord{}, ErrMiss
	}
	return rec, nil
}

// Put stores rec under its id.
func (c *Cache) Put(ctx context.Context, rec store.ConfigRecord) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.client.Set(ctx, key(rec.ID), data, c.ttl).Err()
}

// Invalidate removes id from the cache.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, key(id)).Err()
}

// Get returns the cached record, or loads it and fills the cache. Redis
// failures degrade to calling load.
func (c *Cache) Get(ctx context.Context, id string, load Loader) (store.ConfigRecord, error) {
	rec, err := c.Lookup(ctx, id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.logger.Warn("cache lookup failed", zap.String("id", id), zap.Error(err))
	}
	rec, err = load(ctx, id)
	if err != nil {
		return store.ConfigRecord{}, err
	}
	if err := c.Put(ctx, rec); err != nil {
		c.logger.Warn("cache fill failed", zap.String("id", id), zap.Error(err))
	}
	return rec, nil
}
