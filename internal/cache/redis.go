// Package cache stores recent analysis bundles in Redis so repeated reads of
// the same user and window skip recomputation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "insights:analysis"

// BundleCache wraps a redis client. A nil *BundleCache or one without a
// client is a valid, always-missing cache.
type BundleCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewBundleCache connects to the Redis instance at url. Connection failures
// are logged and yield a disabled cache rather than an error.
func NewBundleCache(ctx context.Context, url string, ttl time.Duration, log logger.Logger) (*BundleCache, error) {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("cache"))

	if url == "" {
		return &BundleCache{log: log}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, bundle cache disabled", logger.String("addr", opts.Addr), logger.Err(err))
		client.Close()
		return &BundleCache{log: log}, nil
	}

	log.Info("connected to redis", logger.String("addr", opts.Addr), logger.Duration("ttl", ttl))
	return NewWithClient(client, ttl, log), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, ttl time.Duration, log logger.Logger) *BundleCache {
	if log == nil {
		log = logger.Default()
	}
	return &BundleCache{client: client, ttl: ttl, log: log}
}

// Enabled reports whether the cache is backed by Redis
func (c *BundleCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Key returns the cache key of a user's bundle for a window
func Key(userID string, days int) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, userID, days)
}

// Get returns the cached bundle and whether it was found. Redis errors are
// reported so callers can log them, but they never hide a usable miss.
func (c *BundleCache) Get(ctx context.Context, userID string, days int) (*models.AnalysisBundle, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, Key(userID, days)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached bundle: %w", err)
	}

	var bundle models.AnalysisBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached bundle: %w", err)
	}
	return &bundle, true, nil
}

// Set stores the bundle under its user and window
func (c *BundleCache) Set(ctx context.Context, bundle *models.AnalysisBundle) error {
	if !c.Enabled() || bundle == nil {
		return nil
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	if err := c.client.Set(ctx, Key(bundle.UserID, bundle.WindowDays), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache bundle: %w", err)
	}
	return nil
}

// Invalidate drops every cached window for the user. Called after new
// health data is written.
func (c *BundleCache) Invalidate(ctx context.Context, userID string) error {
	if !c.Enabled() {
		return nil
	}

	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, userID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached bundles: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached bundles: %w", err)
	}
	c.log.Debug("invalidated cached bundles", logger.String("user_id", userID), logger.Int("keys", len(keys)))
	return nil
}

// Close closes the Redis connection
func (c *BundleCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
