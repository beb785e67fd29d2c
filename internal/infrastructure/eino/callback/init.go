// Package callback 注册 eino 全局回调：LLM 调用指标与追踪
package callback

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var registerOnce sync.Once

// Init 注册 ChatModel 全局回调，进程内只生效一次
func Init() {
	registerOnce.Do(register)
}

// 只关心 ChatModel；提示词模板与 Lambda 节点不上报
func register() {
	einocallbacks.AppendGlobalHandlers(
		cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler()).
			Handler(),
	)
}
