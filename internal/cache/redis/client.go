package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentradar/backend/pkg/logger"
)

// Client is an optional response cache. A nil *Client is valid and
// behaves as a cache that always misses, so the service runs without
// Redis in degraded-cache mode.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) SetEstimate(ctx context.Context, featureHash string, estimate interface{}, ttl time.Duration) error {
	return c.set(ctx, fmt.Sprintf("estimate:%s", featureHash), estimate, ttl)
}

func (c *Client) GetEstimate(ctx context.Context, featureHash string, estimate interface{}) (bool, error) {
	return c.get(ctx, fmt.Sprintf("estimate:%s", featureHash), estimate)
}

func (c *Client) SetRecommendations(ctx context.Context, requestHash string, recs interface{}, ttl time.Duration) error {
	return c.set(ctx, fmt.Sprintf("recommend:%s", requestHash), recs, ttl)
}

func (c *Client) GetRecommendations(ctx context.Context, requestHash string, recs interface{}) (bool, error) {
	return c.get(ctx, fmt.Sprintf("recommend:%s", requestHash), recs)
}

// InvalidateEstimates drops all cached estimates, used after the market
// dataset is refreshed so stale insights are not served.
func (c *Client) InvalidateEstimates(ctx context.Context) error {
	if c == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, "estimate:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Estimate cache invalidated")
	return nil
}

func (c *Client) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	err = c.client.Set(ctx, key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}

	logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) get(ctx context.Context, key string, value interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache key: %w", err)
	}

	err = json.Unmarshal(data, value)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	logger.Debug("Cache hit", zap.String("key", key))
	return true, nil
}
