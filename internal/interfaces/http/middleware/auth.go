// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"abricot-ai-api/internal/interfaces/http/dto"
	apperrors "abricot-ai-api/pkg/errors"
	"abricot-ai-api/pkg/logger"
	"abricot-ai-api/pkg/utils"
)

// ContextUserID gin.Context 中的用户 ID 键
const ContextUserID = "user_id"

// AuthConfig 认证配置
type AuthConfig struct {
	Secret string
	Issuer string
	// SkipPaths 前缀匹配
	SkipPaths []string
	// Enabled 未配置密钥时关闭，生成接口对匿名调用开放
	Enabled bool
}

// Auth 校验后端签发的 Bearer 令牌
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range cfg.SkipPaths {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, apperrors.ErrTokenMissing)
			return
		}
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, apperrors.ErrTokenInvalid)
			return
		}

		claims, err := jwtManager.ParseToken(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, utils.ErrExpiredToken) {
				abortUnauthorized(c, apperrors.ErrTokenExpired)
				return
			}
			abortUnauthorized(c, apperrors.ErrTokenInvalid)
			return
		}

		userID := claims.Subject()
		c.Set(ContextUserID, userID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.UserIDKey, userID))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err *apperrors.AppError) {
	dto.Abort(c, http.StatusUnauthorized, err.Code, err.Message)
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}
