package entity

import (
	"time"

	"github.com/google/uuid"
)

// GenerationOutcome 一次任务生成的结果分类
type GenerationOutcome string

const (
	GenerationOutcomeSuccess        GenerationOutcome = "success"
	GenerationOutcomeInvalidRequest GenerationOutcome = "invalid_request"
	GenerationOutcomeConfiguration  GenerationOutcome = "configuration"
	GenerationOutcomeUpstream       GenerationOutcome = "upstream"
	GenerationOutcomeSchema         GenerationOutcome = "schema"
	GenerationOutcomeUnexpected     GenerationOutcome = "unexpected"
)

// GenerationEvent 任务生成用量流水（不保存提示词原文）
type GenerationEvent struct {
	ID               string            `json:"id" gorm:"type:uuid;primaryKey"`
	RequestID        string            `json:"request_id" gorm:"type:varchar(64);index"`
	UserID           string            `json:"user_id,omitempty" gorm:"type:varchar(64);index"`
	Provider         string            `json:"provider" gorm:"type:varchar(32);not null"`
	Model            string            `json:"model" gorm:"type:varchar(64);not null"`
	Outcome          GenerationOutcome `json:"outcome" gorm:"type:varchar(32);index;not null"`
	UpstreamStatus   int               `json:"upstream_status,omitempty" gorm:"not null;default:0"`
	DraftCount       int               `json:"draft_count" gorm:"not null;default:0"`
	PromptChars      int               `json:"prompt_chars" gorm:"not null;default:0"`
	TokensPrompt     int               `json:"tokens_prompt" gorm:"not null;default:0"`
	TokensCompletion int               `json:"tokens_completion" gorm:"not null;default:0"`
	DurationMs       int               `json:"duration_ms" gorm:"not null;default:0"`
	CreatedAt        time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (GenerationEvent) TableName() string {
	return "generation_events"
}

// NewGenerationEvent 创建生成流水
func NewGenerationEvent(provider, model string, outcome GenerationOutcome) *GenerationEvent {
	return &GenerationEvent{
		ID:       uuid.NewString(),
		Provider: provider,
		Model:    model,
		Outcome:  outcome,
	}
}
