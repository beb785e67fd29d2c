package wire

import (
	"context"

	"abricot-ai-api/internal/application/taskgen"
	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/domain/service"
	"abricot-ai-api/internal/infrastructure/persistence/postgres"
	"abricot-ai-api/internal/infrastructure/persistence/redis"
	"abricot-ai-api/internal/interfaces/http/handler"
	"abricot-ai-api/internal/interfaces/http/middleware"
	"abricot-ai-api/pkg/logger"
)

// BootstrapDeps bootstrap 命令依赖
type BootstrapDeps struct {
	PgClient *postgres.Client
}

// ProvidePostgresClient 启用时连接 PostgreSQL，未启用返回 nil
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if !cfg.Database.Postgres.Enabled {
		logger.Info(ctx, "postgres disabled, generation events will not be persisted")
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres, !cfg.App.IsProduction() && cfg.Observability.Logging.Level == "debug")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 启用时连接 Redis，未启用返回 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		logger.Info(ctx, "redis disabled, rate limiting is off")
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideGenerationRecorder 有数据库时写生成流水，否则丢弃
func ProvideGenerationRecorder(client *postgres.Client) service.GenerationRecorder {
	if client == nil {
		return service.NoopGenerationRecorder{}
	}
	return taskgen.NewUsageRecorder(postgres.NewGenerationEventRepository(client))
}

// ProvideRateLimiter 没有 Redis 时返回 nil，限流中间件随之关闭
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideHealthHandler 按已启用的依赖组装就绪检查
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client, svc *taskgen.Service) *handler.HealthHandler {
	probes := []handler.ReadinessProbe{{
		Name:     "llm",
		Checker:  handler.HealthCheckFunc(func(context.Context) error { return svc.Ready() }),
		Required: true,
	}}
	if pg != nil {
		probes = append(probes, handler.ReadinessProbe{Name: "postgres", Checker: pg, Required: true})
	}
	if rdb != nil {
		// 限流器故障时放行，Redis 不可用不影响就绪
		probes = append(probes, handler.ReadinessProbe{Name: "redis", Checker: rdb})
	}
	return handler.NewHealthHandler(cfg.App.Version, probes...)
}
