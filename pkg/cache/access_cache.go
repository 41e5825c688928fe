// Package cache holds the short-lived Redis cache in front of the
// subscription ledger's access lookups.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis client methods used by AccessCache.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// AccessCache remembers, per (viewer, creator), when the viewer's active
// subscription expires. A zero time records "no active subscription".
type AccessCache struct {
	client RedisClient
	prefix string
}

// NewAccessCache connects to the Redis instance at url and verifies it with PING.
func NewAccessCache(ctx context.Context, url string) (*AccessCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping failed: %w", err)
	}
	return NewAccessCacheWithClient(client), nil
}

// NewAccessCacheWithClient creates an AccessCache backed by a pre-built client.
func NewAccessCacheWithClient(client RedisClient) *AccessCache {
	return &AccessCache{client: client, prefix: "access:"}
}

func (c *AccessCache) key(viewerID, creatorID uint) string {
	return fmt.Sprintf("%s%d:%d", c.prefix, viewerID, creatorID)
}

// Get returns the cached expiry. found is false on a miss.
func (c *AccessCache) Get(ctx context.Context, viewerID, creatorID uint) (expiresAt time.Time, found bool, err error) {
	val, err := c.client.Get(ctx, c.key(viewerID, creatorID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cache: corrupt entry %q: %w", val, err)
	}
	if nanos == 0 {
		return time.Time{}, true, nil
	}
	return time.Unix(0, nanos).UTC(), true, nil
}

// Set stores expiresAt for ttl. Non-positive ttls store nothing.
func (c *AccessCache) Set(ctx context.Context, viewerID, creatorID uint, expiresAt time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	var val int64
	if !expiresAt.IsZero() {
		val = expiresAt.UnixNano()
	}
	return c.client.Set(ctx, c.key(viewerID, creatorID), strconv.FormatInt(val, 10), ttl).Err()
}

// Invalidate drops the entry for the pair.
func (c *AccessCache) Invalidate(ctx context.Context, viewerID, creatorID uint) error {
	return c.client.Del(ctx, c.key(viewerID, creatorID)).Err()
}

// Close releases the Redis connection.
func (c *AccessCache) Close() error {
	return c.client.Close()
}
