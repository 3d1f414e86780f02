package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// CachedRegistry wraps another Registry with a redis read-through cache.
// Only positive lookups are cached: a miss is never stored, so a tenant
// provisioned moments ago is visible on the next request rather than
// pinned behind a cached 403.
type CachedRegistry struct {
	inner  Registry
	client *redis.Client
	ttl    time.Duration
}

// CacheConfig holds redis cache configuration
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewCachedRegistry creates a cached registry over inner. It pings redis
// once so a misconfigured address fails at startup, not mid-request.
func NewCachedRegistry(inner Registry, cfg CacheConfig) (*CachedRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &CachedRegistry{
		inner:  inner,
		client: client,
		ttl:    ttl,
	}, nil
}

// GetTenant returns a cached tenant or falls through to the inner registry
func (r *CachedRegistry) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	cacheKey := "tenant:" + id

	if raw, err := r.client.Get(ctx, cacheKey).Result(); err == nil {
		tenant := new(Tenant)
		if err := json.Unmarshal([]byte(raw), tenant); err == nil {
			return tenant, nil
		}
		// corrupt entry: drop it and fall through
		r.client.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		// redis down degrades to the inner registry, it does not fail the lookup
		return r.inner.GetTenant(ctx, id)
	}

	tenant, err := r.inner.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(tenant); err == nil {
		r.client.Set(ctx, cacheKey, raw, r.ttl)
	}

	return tenant, nil
}

// Close releases the redis connection
func (r *CachedRegistry) Close() error {
	return r.client.Close()
}
