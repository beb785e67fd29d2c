package service

import (
	"context"

	"abricot-ai-api/internal/domain/entity"
)

// GenerationRecorder 记录任务生成流水。
// 实现必须是 best-effort：失败只记日志，不影响生成结果。
type GenerationRecorder interface {
	Record(ctx context.Context, event *entity.GenerationEvent)
}

// NoopGenerationRecorder 未配置持久化时使用
type NoopGenerationRecorder struct{}

// Record 不做任何事
func (NoopGenerationRecorder) Record(context.Context, *entity.GenerationEvent) {}
