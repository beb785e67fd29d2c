package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"abricot-ai-api/pkg/logger"
)

const (
	// RequestIDHeader 请求 ID 头，响应原样回写
	RequestIDHeader = "X-Request-ID"
	// ContextRequestID gin 上下文中的请求 ID 键
	ContextRequestID = "request_id"

	maxRequestIDLen = 128
)

// RequestID 沿用调用方的请求 ID，缺失或不合法时生成新的
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Set(ContextRequestID, id)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.RequestIDKey, id))
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// validRequestID 只接受可打印 ASCII，避免污染日志
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
