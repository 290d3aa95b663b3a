// Package cache keeps computed indicator bundles in Redis so repeated
// chart reads don't recompute from the store. Entries are invalidated per
// symbol whenever new data is upserted for it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercadobr/b3-market-data/internal/models"
)

// Cache wraps a Redis client. A nil *Cache is valid and disables caching,
// so callers never have to branch on configuration.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis. Entries expire after ttl as a safety net on top
// of explicit invalidation.
func New(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// indicatorKey includes every request parameter that shapes the bundle, so
// a forecast-less bundle can never be served to a forecast-requesting
// reader. The prefix stays "indicators:{symbol}:" for InvalidateSymbol.
func indicatorKey(symbol string, window int, withForecast bool) string {
	return fmt.Sprintf("indicators:%s:%d:%t", symbol, window, withForecast)
}

// GetIndicators returns a cached bundle, or false on miss or any error.
func (c *Cache) GetIndicators(ctx context.Context, symbol string, window int, withForecast bool) (*models.IndicatorBundle, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, indicatorKey(symbol, window, withForecast)).Bytes()
	if err != nil {
		return nil, false
	}

	var bundle models.IndicatorBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, false
	}
	return &bundle, true
}

// SetIndicators stores a bundle. Failures are logged, never propagated;
// the cache is an optimization, not a dependency.
func (c *Cache) SetIndicators(ctx context.Context, bundle *models.IndicatorBundle, withForecast bool) {
	if c == nil {
		return
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		log.Printf("[WARN] failed to marshal indicator bundle: %v", err)
		return
	}
	if err := c.client.Set(ctx, indicatorKey(bundle.Symbol, bundle.Window, withForecast), data, c.ttl).Err(); err != nil {
		log.Printf("[WARN] failed to cache indicators for %s: %v", bundle.Symbol, err)
	}
}

// InvalidateSymbol drops every cached window for a symbol.
func (c *Cache) InvalidateSymbol(ctx context.Context, symbol string) {
	if c == nil {
		return
	}

	pattern := fmt.Sprintf("indicators:%s:*", symbol)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("[WARN] failed to invalidate %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("[WARN] cache invalidation scan for %s: %v", symbol, err)
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
