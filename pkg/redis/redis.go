package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/rental-insights/pkg/config"
)

// A slow cache is worse than no cache: reports fall back to the database.
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
	pingTimeout = 5 * time.Second
)

// Client is the report cache connection.
type Client struct {
	*redis.Client
}

// Options maps cfg onto go-redis options for a named client.
func Options(cfg *config.RedisConfig, clientName string) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
}

// NewRedisClient connects and pings once.
func NewRedisClient(cfg *config.RedisConfig, clientName string) (*Client, error) {
	client := redis.NewClient(Options(cfg, clientName))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr(), err)
	}
	return &Client{Client: client}, nil
}

// NewFromClient wraps an already configured client.
func NewFromClient(client *redis.Client) *Client {
	return &Client{Client: client}
}

// GetString reads key once. A missing key is redis.Nil.
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	return c.Get(ctx, key).Result()
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.Del(ctx, keys...).Err()
}

// ScanKeys collects every key matching pattern using SCAN, batch keys per round trip.
func (c *Client) ScanKeys(ctx context.Context, pattern string, batch int64) ([]string, error) {
	var found []string
	iter := c.Scan(ctx, 0, pattern, batch).Iterator()
	for iter.Next(ctx) {
		found = append(found, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return found, nil
}
