package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"abricot-ai-api/internal/domain/entity"
)

// GenerationClient 调用生成代理 POST /api/ai/generate-tasks
type GenerationClient struct {
	api *Client
}

// NewGenerationClient 创建生成代理客户端；endpoint 为完整地址
func NewGenerationClient(endpoint string, httpClient *http.Client) *GenerationClient {
	if httpClient == nil {
		// 生成调用可能持续数十秒
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &GenerationClient{api: &Client{baseURL: strings.TrimSpace(endpoint), http: httpClient}}
}

// WithToken 返回携带 Bearer 令牌的副本
func (g *GenerationClient) WithToken(token string) *GenerationClient {
	return &GenerationClient{api: g.api.WithToken(token)}
}

type generateRequest struct {
	Prompt       string `json:"prompt"`
	ProjectTitle string `json:"projectTitle,omitempty"`
}

// Generate 返回经过代理校验的草稿列表
func (g *GenerationClient) Generate(ctx context.Context, prompt, projectTitle string) ([]entity.TaskDraft, error) {
	data, err := g.api.send(ctx, "ai.generate_tasks", http.MethodPost, "",
		generateRequest{Prompt: prompt, ProjectTitle: projectTitle})
	if err != nil {
		return nil, err
	}

	tasks := data.Get("tasks")
	if !tasks.IsArray() {
		return nil, malformedGeneration("response has no data.tasks")
	}
	var drafts []entity.TaskDraft
	if err := json.Unmarshal([]byte(tasks.Raw), &drafts); err != nil {
		return nil, malformedGeneration("decode data.tasks: " + err.Error())
	}
	if n := len(drafts); n < entity.GenerationMinTasks || n > entity.GenerationMaxTasks {
		return nil, malformedGeneration(fmt.Sprintf("data.tasks has %d items, want %d to %d",
			n, entity.GenerationMinTasks, entity.GenerationMaxTasks))
	}
	return drafts, nil
}

// malformedGeneration 代理返回 2xx 但内容不可用；Message 留空，由会话展示通用生成失败文案
func malformedGeneration(detail string) *APIError {
	return &APIError{Status: http.StatusBadGateway, Details: "ai.generate_tasks: " + detail}
}
