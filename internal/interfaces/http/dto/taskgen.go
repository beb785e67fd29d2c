package dto

import "abricot-ai-api/internal/domain/entity"

// GenerateTasksRequest 任务生成请求
type GenerateTasksRequest struct {
	Prompt       string `json:"prompt"`
	ProjectTitle string `json:"projectTitle"`
}

// GenerateTasksResponse 任务生成成功响应
type GenerateTasksResponse = DataResponse[entity.GenerationResult]
