package taskgen

import (
	"context"
	"time"

	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/internal/domain/repository"
	"abricot-ai-api/pkg/logger"
)

const recordTimeout = 3 * time.Second

// UsageRecorder 把生成流水写入仓储，best-effort
type UsageRecorder struct {
	repo repository.GenerationEventRepository
}

// NewUsageRecorder 创建流水记录器；repo 为 nil 时 Record 为空操作
func NewUsageRecorder(repo repository.GenerationEventRepository) *UsageRecorder {
	return &UsageRecorder{repo: repo}
}

// Record 写入不受请求取消影响，失败只记日志
func (r *UsageRecorder) Record(ctx context.Context, event *entity.GenerationEvent) {
	if r == nil || r.repo == nil || event == nil {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := r.repo.Create(writeCtx, event); err != nil {
		logger.Warn(ctx, "failed to record generation event",
			"event_id", event.ID,
			"outcome", string(event.Outcome),
			"error", err.Error(),
		)
	}
}
