package redisclient

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "contacts"

// Client wraps the connection shared by the job queue producer (api) and consumer (worker).
type Client struct {
	redisdb *redis.Client
	prefix  string
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	prefix := strings.TrimSuffix(cfg.KeyPrefix, ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &Client{redisdb: redisdb, prefix: prefix}
}

// Key namespaces name under the configured prefix, e.g. "contacts:jobs:ready".
func (c *Client) Key(name string) string {
	return c.prefix + ":" + name
}

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

func (c *Client) Raw() *redis.Client {
	return c.redisdb
}
