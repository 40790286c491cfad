package journals

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusCache caches the status endpoint payload in Redis. A nil cache
// or nil client degrades to calling the loader directly.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache instantiates the cache helper.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

// Fetch loads a cached value or populates it using the loader.
func (c *StatusCache) Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops a cached key, used after posting outcomes change.
func (c *StatusCache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}
