package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"abricot-ai-api/pkg/tracer"
)

// slidingWindowScript 原子地清理过期成员、计数并在未超限时写入
//
// KEYS[1] 限流键
// ARGV[1] 当前毫秒时间戳 ARGV[2] 窗口毫秒 ARGV[3] 上限 ARGV[4] 成员
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
if count >= limit then
  return {0, count}
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window * 2)
return {1, count + 1}
`)

// RateLimiter 滑动窗口限流器
type RateLimiter struct {
	client *Client
	now    func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow 检查 key 在 window 内是否还有配额，允许时占用一个
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := otelTracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	args := []any{
		strconv.FormatInt(l.now().UnixMilli(), 10),
		strconv.FormatInt(window.Milliseconds(), 10),
		strconv.Itoa(limit),
		uuid.NewString(),
	}
	res, err := slidingWindowScript.Run(ctx, l.client.rdb, []string{key}, args...).Int64Slice()
	if err != nil {
		tracer.RecordError(span, err)
		return false, err
	}

	allowed := len(res) == 2 && res[0] == 1
	if len(res) == 2 {
		span.SetAttributes(attribute.Int64("ratelimit.current_count", res[1]))
	}
	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed))
	return allowed, nil
}
