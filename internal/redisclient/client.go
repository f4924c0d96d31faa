package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/deduct_stock.lua
var deductStockScript string

//go:embed scripts/restore_stock.lua
var restoreStockScript string

// Client mirrors variant stock counters for a fast availability precheck
// and stores order idempotency keys. The database is authoritative; every
// mirror operation is best-effort.
type Client struct {
	rdb           *redis.Client
	deductScript  *redis.Script
	restoreScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
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

	return &Client{
		rdb:           rdb,
		deductScript:  redis.NewScript(deductStockScript),
		restoreScript: redis.NewScript(restoreStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(variantID int64) string {
	return fmt.Sprintf("stock:%d", variantID)
}

// InitStock seeds the mirrored stock counter for a variant
func (c *Client) InitStock(ctx context.Context, variantID int64, stock int) error {
	return c.rdb.Set(ctx, stockKey(variantID), stock, 0).Err()
}

// PrecheckStock reports whether the mirrored counter can cover quantity.
// A variant that is not mirrored passes the check; only the database
// transaction decides for real.
func (c *Client) PrecheckStock(ctx context.Context, variantID int64, quantity int) (ok bool, available int, err error) {
	val, err := c.rdb.Get(ctx, stockKey(variantID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, 0, nil
	}
	if err != nil {
		return true, 0, err
	}

	available, err = strconv.Atoi(val)
	if err != nil {
		return true, 0, fmt.Errorf("corrupt stock mirror for variant %d: %w", variantID, err)
	}

	return available >= quantity, available, nil
}

// MirrorDeduct applies a committed deduction to the mirrored counter
func (c *Client) MirrorDeduct(ctx context.Context, variantID int64, quantity int) error {
	_, err := c.deductScript.Run(ctx, c.rdb, []string{stockKey(variantID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("deduct stock script failed: %w", err)
	}
	return nil
}

// MirrorRestore applies a committed restoration to the mirrored counter
func (c *Client) MirrorRestore(ctx context.Context, variantID int64, quantity int) error {
	_, err := c.restoreScript.Run(ctx, c.rdb, []string{stockKey(variantID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("restore stock script failed: %w", err)
	}
	return nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
