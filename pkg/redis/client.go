package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/optiondesk/pkg/config"
)

// Client is the shared Redis handle. A disabled client has no connection
// and every helper built on it degrades to a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb *redis.Client
}

// New connects to Redis when REDIS_ENABLED=true and verifies it with PING
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(options(cfg))
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr(), err)
	}
	return &Client{rdb: rdb}, nil
}

// 스냅샷 GET/SET은 수백 KB까지 커질 수 있어 read/write 타임아웃을 넉넉히
func options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Disabled returns a client without a connection
func Disabled() *Client {
	return &Client{}
}

// Enabled reports whether the client holds a connection
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Redis exposes the go-redis client (nil when disabled)
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close releases the connection pool
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
