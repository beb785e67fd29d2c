//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"abricot-ai-api/internal/application/taskgen"
	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/infrastructure/llm"
	"abricot-ai-api/internal/interfaces/http/handler"
	"abricot-ai-api/internal/interfaces/http/router"
	"abricot-ai-api/internal/workflow/chain"
	workflowport "abricot-ai-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		DataSet,
		TaskGenSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeBootstrap 仅初始化 PostgreSQL（用于 bootstrap）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*BootstrapDeps, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		wire.Struct(new(BootstrapDeps), "*"),
	)
	return nil, nil, nil
}

// DataSet 可选的数据层（未启用时为 nil）
var DataSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideRedisClient,
	ProvideGenerationRecorder,
	ProvideRateLimiter,
)

// TaskGenSet 任务生成链路
var TaskGenSet = wire.NewSet(
	llm.NewEinoFactory,
	chain.NewTaskGenerationChain,
	taskgen.NewService,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	wire.Bind(new(taskgen.ProviderResolver), new(*llm.EinoFactory)),
	wire.Bind(new(taskgen.Completer), new(*chain.TaskGenerationChain)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewTaskGenHandler,
	wire.Bind(new(handler.TaskGenerator), new(*taskgen.Service)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
