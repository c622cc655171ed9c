package fxrates

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeRateKey = "fxrates:active"

// Cache keeps the active rate in Redis so billing runs do not hit the
// database for a value that changes rarely. A nil cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetActive returns the cached active rate, or nil on miss.
func (c *Cache) GetActive(ctx context.Context) (*Rate, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, activeRateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rate Rate
	if err := json.Unmarshal(raw, &rate); err != nil {
		return nil, err
	}
	return &rate, nil
}

// SetActive stores the active rate.
func (c *Cache) SetActive(ctx context.Context, rate *Rate) error {
	if c == nil || c.client == nil || rate == nil {
		return nil
	}
	raw, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, activeRateKey, raw, c.ttl).Err()
}

// Invalidate drops the cached active rate.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, activeRateKey).Err()
}
