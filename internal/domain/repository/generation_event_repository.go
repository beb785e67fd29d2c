// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"abricot-ai-api/internal/domain/entity"
)

// GenerationEventRepository 生成流水仓储
type GenerationEventRepository interface {
	Create(ctx context.Context, event *entity.GenerationEvent) error
	CountByOutcome(ctx context.Context, since time.Time) (map[entity.GenerationOutcome]int64, error)
}
