// Package cache provides an optional cache for price-provider responses
// (daily closes, VIX), which internal/netkit/client consults read-through.
// Ticker resolution and politician alias lookups do not use it. Grounded on
// the teacher's data/cache/cache.go: an in-memory default with an automatic
// Redis upgrade when an address is configured.
package cache

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache is a byte-oriented get/set cache with TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

type memory struct {
	mu sync.RWMutex
	m  map[string]entry
}

type entry struct {
	b   []byte
	exp time.Time
}

// NewMemory returns an in-process cache, safe for concurrent readers, used
// when no Redis address is configured.
func NewMemory() Cache {
	return &memory{m: make(map[string]entry)}
}

func (c *memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	if !ok || (!e.exp.IsZero() && time.Now().After(e.exp)) {
		return nil, false
	}
	return e.b, true
}

func (c *memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{b: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}
	c.m[key] = e
}

type redisCache struct {
	client *redis.Client
}

// NewRedis wraps a Redis client for shared, multi-process caching of
// price-provider responses across pipeline runs.
func NewRedis(addr string) Cache {
	return &redisCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	v, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (r *redisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = r.client.Set(ctx, key, val, ttl).Err()
}

// NewFromEnv returns a Redis-backed cache when addr is non-empty, otherwise
// an in-process map. This mirrors the teacher's NewAuto(), parameterized
// instead of reading the environment directly so callers control wiring.
func NewFromEnv(addr string) Cache {
	if addr != "" {
		return NewRedis(addr)
	}
	return NewMemory()
}
