// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"abricot-ai-api/internal/application/taskgen"
	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/internal/interfaces/http/dto"
	apperrors "abricot-ai-api/pkg/errors"
	"abricot-ai-api/pkg/logger"
)

// TaskGenerator 任务生成能力
type TaskGenerator interface {
	Generate(ctx context.Context, req taskgen.GenerationRequest) (*entity.GenerationResult, error)
}

// TaskGenHandler AI 任务生成处理器
type TaskGenHandler struct {
	svc TaskGenerator
}

// NewTaskGenHandler 创建任务生成处理器
func NewTaskGenHandler(svc TaskGenerator) *TaskGenHandler {
	return &TaskGenHandler{svc: svc}
}

// GenerateTasks 根据自然语言描述生成候选任务
// @Summary 生成任务草稿
// @Description 调用 LLM 生成 1~30 条任务草稿，结果经过严格校验，不会持久化
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.GenerateTasksRequest true "生成请求"
// @Success 200 {object} dto.GenerateTasksResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/ai/generate-tasks [post]
func (h *TaskGenHandler) GenerateTasks(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, 400, apperrors.CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.svc.Generate(ctx, taskgen.GenerationRequest{
		Prompt:       req.Prompt,
		ProjectTitle: req.ProjectTitle,
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			err = apperrors.Wrap(err, apperrors.CodeInternalError, taskgen.MsgUnexpected).WithDetail(err.Error())
		}
		appErr := apperrors.AsAppError(err)
		if appErr.HTTPStatus >= 500 && appErr.Code != apperrors.CodeExternalService {
			logger.Error(ctx, "failed to generate tasks", err, "code", string(appErr.Code))
		}
		dto.FailWithError(c, appErr)
		return
	}

	dto.OK(c, *result)
}
