// Package redis 提供 Redis 客户端与限流器实现
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"abricot-ai-api/internal/config"
	"abricot-ai-api/pkg/tracer"
)

var otelTracer = otel.Tracer("redis")

// 启动时连接检查的超时
const connectTimeout = 5 * time.Second

// Client 限流用的 Redis 连接
type Client struct {
	rdb  *redis.Client
	addr string
}

// NewClient 按配置建立连接，启动时不可达直接报错
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	addr := cfg.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	c := &Client{rdb: rdb, addr: addr}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.HealthCheck(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return c, nil
}

// Redis 底层客户端
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck PING，供就绪探针使用
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := otelTracer.Start(ctx, "redis.ping")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("server.address", c.addr))

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		tracer.RecordError(span, err)
		return err
	}
	return nil
}
