package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks Redis liveness for the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// AcquireSettleLock takes a short lock that serializes concurrent payment
// callbacks for one order. The conditional settle update remains the
// correctness guard; the lock only stops duplicate work.
func (c *Client) AcquireSettleLock(ctx context.Context, orderNumber string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("settle:%s", orderNumber), "1", ttl).Result()
}

// ReleaseSettleLock releases a settle lock before its TTL expires.
func (c *Client) ReleaseSettleLock(ctx context.Context, orderNumber string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("settle:%s", orderNumber)).Err()
}

// CacheOrderNumber maps an idempotency key to its order number so repeat
// checkout submissions short-circuit before touching the database.
func (c *Client) CacheOrderNumber(ctx context.Context, idempotencyKey, orderNumber string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", idempotencyKey), orderNumber, ttl).Err()
}

// LookupOrderNumber returns the cached order number for an idempotency key,
// or "" on a miss.
func (c *Client) LookupOrderNumber(ctx context.Context, idempotencyKey string) (string, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", idempotencyKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
