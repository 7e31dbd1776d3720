package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is a thin JSON cache over redis. A Cache without a client behaves as
// a permanent miss so callers never need to know whether redis is configured.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Cache) GetObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) SetObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, objInByte, exp).Err()
}

func (c *Cache) Remove(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Counter increments key, seeding it with seed when the key does not exist yet.
func (c *Cache) Counter(ctx context.Context, key string, seed int64) (int64, bool, error) {
	if !c.Enabled() {
		return 0, false, nil
	}
	if err := c.rdb.SetNX(ctx, key, seed, 0).Err(); err != nil {
		return 0, false, err
	}
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// ConnectRedisWithRetry returns a nil client when REDIS_ADDRESS is unset.
func ConnectRedisWithRetry(ctx context.Context, logg *logrus.Logger) (*redis.Client, *redislock.Client, error) {
	maxAttempts := envInt("REDIS_CONNECT_ATTEMPTS", 5)
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rdb, err := ConnectRedis(ctx)
		if err == nil {
			if rdb == nil {
				return nil, nil, nil
			}
			return rdb, redislock.New(rdb), nil
		}
		lastErr = err
		LogError(logg, "config", "ConnectRedisWithRetry", fmt.Sprintf("attempt %d", attempt), nil, err)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, nil, fmt.Errorf("connect redis: %w", lastErr)
}
