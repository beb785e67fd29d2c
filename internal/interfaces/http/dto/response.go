// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "abricot-ai-api/pkg/errors"
	"abricot-ai-api/pkg/tracer"
)

// DataResponse 成功响应：{ "data": ... }
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// ErrorResponse 错误响应：{ "error": ..., "details"?: ... }
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// OK 返回 200 与数据
func OK[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, DataResponse[T]{Data: data})
}

// Fail 返回错误响应（不终止后续中间件）
func Fail(c *gin.Context, status int, code apperrors.ErrorCode, message, details string) {
	c.JSON(status, newErrorResponse(c, code, message, details))
}

// Abort 返回错误响应并终止处理链
func Abort(c *gin.Context, status int, code apperrors.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, newErrorResponse(c, code, message, ""))
}

// FailWithError 把任意错误映射为错误响应；非 AppError 一律按 500 处理
func FailWithError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	Fail(c, status, appErr.Code, appErr.Message, appErr.Detail)
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, apperrors.CodeInvalidRequest, message, "")
}

func newErrorResponse(c *gin.Context, code apperrors.ErrorCode, message, details string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		Details: details,
		Code:    string(code),
		TraceID: tracer.TraceID(c.Request.Context()),
	}
}
