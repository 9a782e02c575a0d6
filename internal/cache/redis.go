package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/campus-match/internal/config"
)

// dedupePending marks a dedupe key whose first writer has not stored the id yet.
const dedupePending = "pending"

// dedupePoll is how often a duplicate submission re-checks a pending key.
const dedupePoll = 10 * time.Millisecond

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// NewRedisCacheFromAddr connects to a bare address (tests, tooling).
func NewRedisCacheFromAddr(addr string) *RedisCache {
	return &RedisCache{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// SetJSON stores v marshalled as JSON.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON loads key into v. found is false on a cache miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// KeyForIncomingCount generates Redis key for a user's incoming interest count.
func (c *RedisCache) KeyForIncomingCount(userID uint64) string {
	return fmt.Sprintf("interests:incoming:%d", userID)
}

// KeyForDedupe generates the double-tap key for one logical interest action.
func (c *RedisCache) KeyForDedupe(fromID, toID uint64, positive bool) string {
	kind := "dislike"
	if positive {
		kind = "like"
	}
	return fmt.Sprintf("interests:dedupe:%d:%d:%s", fromID, toID, kind)
}

// KeyForSession generates the conversational session key of a user.
func (c *RedisCache) KeyForSession(userID uint64) string {
	return fmt.Sprintf("session:%d", userID)
}

// SetIncomingCount stores the count with a fresh TTL.
func (c *RedisCache) SetIncomingCount(ctx context.Context, userID uint64, count int64, ttl time.Duration) error {
	return c.Client.Set(ctx, c.KeyForIncomingCount(userID), count, ttl).Err()
}

// GetIncomingCount returns the cached count. ok is false on a cache miss.
// A hit refreshes the TTL since the user is active.
func (c *RedisCache) GetIncomingCount(ctx context.Context, userID uint64, ttl time.Duration) (int64, bool, error) {
	key := c.KeyForIncomingCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry, treat as a miss
		_ = c.Client.Del(ctx, key).Err()
		return 0, false, nil
	}
	_ = c.Client.Expire(ctx, key, ttl).Err()
	return n, true, nil
}

// InvalidateIncomingCount drops cached counts for the given users.
func (c *RedisCache) InvalidateIncomingCount(ctx context.Context, userIDs ...uint64) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForIncomingCount(id))
	}
	return c.Del(ctx, keys...)
}

// AcquireDedupe claims key for window. It returns true for the first caller only.
func (c *RedisCache) AcquireDedupe(ctx context.Context, key string, window time.Duration) (bool, error) {
	return c.Client.SetNX(ctx, key, dedupePending, window).Result()
}

// StoreDedupe records the id produced by the first caller, keeping the window TTL.
func (c *RedisCache) StoreDedupe(ctx context.Context, key string, id uint64) error {
	return c.Client.Set(ctx, key, id, redis.KeepTTL).Err()
}

// ReleaseDedupe frees a claim whose write failed so a retry is not swallowed.
func (c *RedisCache) ReleaseDedupe(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// WaitDedupe waits up to timeout for the first caller to store its id.
// ok is false when the key expired, was released, or stayed pending.
func (c *RedisCache) WaitDedupe(ctx context.Context, key string, timeout time.Duration) (uint64, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		val, err := c.Client.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			return 0, false, nil
		case err != nil:
			return 0, false, err
		case val != dedupePending:
			id, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return 0, false, fmt.Errorf("dedupe key %s holds %q: %w", key, val, err)
			}
			return id, true, nil
		}

		if time.Now().After(deadline) {
			return 0, false, nil
		}
		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case <-time.After(dedupePoll):
		}
	}
}
