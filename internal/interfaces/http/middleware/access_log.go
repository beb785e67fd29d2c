package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"abricot-ai-api/pkg/logger"
)

// AccessLog 访问日志，不记录请求体（提示词可能包含业务敏感信息）
func AccessLog(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range skipPaths {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
		}
		if status >= 500 {
			logger.Warn(c.Request.Context(), "api request", args...)
			return
		}
		logger.Info(c.Request.Context(), "api request", args...)
	}
}
