// Package port 工作流层依赖的外部能力
package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 按提供商名取 ChatModel；凭据在每次 Get 时解析，实现方可按凭据缓存实例
type ChatModelFactory interface {
	Get(ctx context.Context, provider string) (model.BaseChatModel, error)
}

// ChatModelFactoryFunc 函数适配器，便于测试与单提供商场景
type ChatModelFactoryFunc func(ctx context.Context, provider string) (model.BaseChatModel, error)

// Get 实现 ChatModelFactory
func (f ChatModelFactoryFunc) Get(ctx context.Context, provider string) (model.BaseChatModel, error) {
	return f(ctx, provider)
}
