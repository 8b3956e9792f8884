package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"taskflow/pkg/config"
	"taskflow/pkg/logger"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client wraps the Redis client
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client from config
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opt.DB = cfg.DB
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	logger.Info("Redis connected", "url", cfg.URL)

	return &Client{rdb: rdb}, nil
}

// IsCacheMiss reports whether err means the key does not exist.
func IsCacheMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping tests the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ═══════════════════════════════════════════════════════════════════════════════
// Distributed Locking
// ═══════════════════════════════════════════════════════════════════════════════

// AcquireLock tries to take lockKey for ttl. It returns the token needed to
// release it, or "" when someone else holds the lock.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

// ReleaseLock releases a lock previously taken with token.
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	return releaseScript.Run(ctx, c.rdb, []string{lockKey}, token).Err()
}

// ═══════════════════════════════════════════════════════════════════════════════
// JSON Cache Helpers
// ═══════════════════════════════════════════════════════════════════════════════

// GetJSON retrieves a JSON value and unmarshals it into the target.
// A missing key returns an error for which IsCacheMiss is true.
func (c *Client) GetJSON(ctx context.Context, key string, target interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Versioned Cache
// ═══════════════════════════════════════════════════════════════════════════════

// Version returns the current value of versionKey, "" when it was never bumped.
func (c *Client) Version(ctx context.Context, versionKey string) (string, error) {
	version, err := c.rdb.Get(ctx, versionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return version, err
}

// SetJSONIfVersion caches value under key only while versionKey still holds
// version. It reports false when a writer bumped the version in between.
func (c *Client) SetJSONIfVersion(ctx context.Context, key, versionKey, version string, value interface{}, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	stored := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, expiration)
			return nil
		})
		stored = err == nil
		return err
	}, versionKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate deletes key and bumps versionKey, so readers that loaded the old
// value before this call can no longer cache it.
func (c *Client) Invalidate(ctx context.Context, key, versionKey string, versionTTL time.Duration) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}
