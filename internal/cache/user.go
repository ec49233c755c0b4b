package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/content/internal/model"
)

const profileKeyPrefix = "user:profile:"

// DefaultProfileTTL bounds how stale a cached profile may get when an
// invalidation is lost.
const DefaultProfileTTL = 10 * time.Minute

func profileKey(id int64) string {
	return profileKeyPrefix + strconv.FormatInt(id, 10)
}

// GetProfile returns the cached profile of user id, or ErrCacheMiss.
func (c *Cache) GetProfile(ctx context.Context, id int64) (*model.User, error) {
	data, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get profile: %w", err)
	}

	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, ErrCacheMiss
	}
	return &u, nil
}

// SetProfile caches u for the configured profile TTL.
func (c *Cache) SetProfile(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return c.client.Set(ctx, profileKey(u.ID), data, c.profileTTL).Err()
}

// InvalidateProfile removes the cached profile of user id.
func (c *Cache) InvalidateProfile(ctx context.Context, id int64) error {
	return c.client.Del(ctx, profileKey(id)).Err()
}
