package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"abricot-ai-api/internal/interfaces/http/dto"
	apperrors "abricot-ai-api/pkg/errors"
	"abricot-ai-api/pkg/logger"
)

// Recovery 捕获 panic，返回统一的 500 错误体
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				// 客户端断开，交给 net/http 处理
				panic(r)
			}

			logger.Error(c.Request.Context(), "panic recovered", fmt.Errorf("%v", r),
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.Abort(c, http.StatusInternalServerError, apperrors.CodeInternalError, "Unexpected error")
		}()

		c.Next()
	}
}
