package postgres

import (
	"context"
	"fmt"
	"time"

	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/internal/domain/repository"
	"abricot-ai-api/pkg/tracer"
)

// GenerationEventRepository 生成流水仓储
type GenerationEventRepository struct {
	client *Client
}

var _ repository.GenerationEventRepository = (*GenerationEventRepository)(nil)

// NewGenerationEventRepository 创建生成流水仓储
func NewGenerationEventRepository(client *Client) *GenerationEventRepository {
	return &GenerationEventRepository{client: client}
}

// Create 写入一条生成流水
func (r *GenerationEventRepository) Create(ctx context.Context, event *entity.GenerationEvent) error {
	ctx, span := otelTracer.Start(ctx, "postgres.GenerationEventRepository.Create")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(event).Error; err != nil {
		tracer.RecordError(span, err)
		return fmt.Errorf("failed to create generation event: %w", err)
	}
	return nil
}

// CountByOutcome 统计 since 之后各结果的调用次数
func (r *GenerationEventRepository) CountByOutcome(ctx context.Context, since time.Time) (map[entity.GenerationOutcome]int64, error) {
	ctx, span := otelTracer.Start(ctx, "postgres.GenerationEventRepository.CountByOutcome")
	defer span.End()

	var rows []struct {
		Outcome entity.GenerationOutcome
		Total   int64
	}
	if err := r.client.db.WithContext(ctx).
		Model(&entity.GenerationEvent{}).
		Select("outcome, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error; err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("failed to count generation events: %w", err)
	}

	counts := make(map[entity.GenerationOutcome]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Total
	}
	return counts, nil
}
