package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const leaderboardKey = "leaderboard:global"

// LeaderboardTTL keeps the cached leaderboard short-lived; streak advances
// invalidate it eagerly, the TTL covers everything else.
const LeaderboardTTL = 30 * time.Second

// Cache wraps the redis client used for leaderboard responses. The zero
// value of a nil *Cache is usable: every method degrades to a miss, so the
// API keeps working when redis is not configured.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCache(logger *zap.Logger) (*Cache, error) {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}
	redisPort := os.Getenv("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Cache{client: client, logger: logger}, nil
}

// GetLeaderboard unmarshals a cached leaderboard into dest. Returns false on
// a miss or any redis error.
func (c *Cache) GetLeaderboard(ctx context.Context, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("leaderboard_cache_read_failed", zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("leaderboard_cache_decode_failed", zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) SetLeaderboard(ctx context.Context, value any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("leaderboard_cache_encode_failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, leaderboardKey, data, LeaderboardTTL).Err(); err != nil {
		c.logger.Warn("leaderboard_cache_write_failed", zap.Error(err))
	}
}

// InvalidateLeaderboard drops the cached leaderboard after a streak change.
func (c *Cache) InvalidateLeaderboard(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, leaderboardKey).Err(); err != nil {
		c.logger.Warn("leaderboard_cache_invalidate_failed", zap.Error(err))
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
