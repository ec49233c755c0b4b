package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/content/internal/model"
)

const (
	authCachePrefix = "auth:ctx:"
	authCacheTTL    = 5 * time.Minute
)

// GetAuthContext returns the cached identity for cacheKey, or ErrCacheMiss.
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authCachePrefix+cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get auth context: %w", err)
	}

	var a model.AuthContext
	if err := json.Unmarshal(data, &a); err != nil {
		// Corrupt entries behave like misses and get overwritten.
		return nil, ErrCacheMiss
	}
	return &a, nil
}

// SetAuthContext caches an identity under cacheKey.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, a *model.AuthContext) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}
	return c.client.Set(ctx, authCachePrefix+cacheKey, data, authCacheTTL).Err()
}

// DeleteAuthContext drops a cached identity, e.g. after revocation.
func (c *Cache) DeleteAuthContext(ctx context.Context, cacheKey string) error {
	return c.client.Del(ctx, authCachePrefix+cacheKey).Err()
}

const revokedKeyPrefix = "auth:revoked:"

// MarkRevoked flags keyID so cached identities for it stop authenticating
// before their TTL runs out.
func (c *Cache) MarkRevoked(ctx context.Context, keyID string) error {
	return c.client.Set(ctx, revokedKeyPrefix+keyID, 1, authCacheTTL).Err()
}

// IsRevoked reports whether keyID was flagged by MarkRevoked.
func (c *Cache) IsRevoked(ctx context.Context, keyID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKeyPrefix+keyID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked key: %w", err)
	}
	return n > 0, nil
}
