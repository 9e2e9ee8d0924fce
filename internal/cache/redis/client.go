package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/internal/metrics"
	"github.com/OksanaKunikevych/nebula/pkg/logger"
)

// Client caches the metrics+insights response per item so repeated GET
// /metrics calls do not hit SQLite. A pipeline run invalidates the item's
// entry before writing new snapshots.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
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

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetMetricsResponse(ctx context.Context, itemID string, response interface{}) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	err = c.client.Set(ctx, metricsKey(itemID), data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set metrics cache: %w", err)
	}

	logger.Debug("Metrics response cached", zap.String("item_id", itemID))
	return nil
}

func (c *Client) GetMetricsResponse(ctx context.Context, itemID string, response interface{}) (bool, error) {
	data, err := c.client.Get(ctx, metricsKey(itemID)).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("metrics").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get metrics cache: %w", err)
	}

	err = json.Unmarshal(data, response)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	metrics.CacheHits.WithLabelValues("metrics").Inc()
	logger.Debug("Metrics cache hit", zap.String("item_id", itemID))
	return true, nil
}

// Invalidate drops the cached response for an item. Called when a pipeline
// run replaces the stored snapshots.
func (c *Client) Invalidate(ctx context.Context, itemID string) error {
	err := c.client.Del(ctx, metricsKey(itemID)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate metrics cache: %w", err)
	}
	return nil
}

func metricsKey(itemID string) string {
	return fmt.Sprintf("metrics:%s", itemID)
}
