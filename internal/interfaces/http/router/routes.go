package router

import (
	"github.com/gin-gonic/gin"

	"abricot-ai-api/internal/interfaces/http/handler"
)

// RegisterAIRoutes 注册 AI 相关路由
func RegisterAIRoutes(group *gin.RouterGroup, taskGenHandler *handler.TaskGenHandler) {
	if taskGenHandler == nil {
		return
	}
	ai := group.Group("/ai")
	{
		ai.POST("/generate-tasks", taskGenHandler.GenerateTasks)
	}
}
