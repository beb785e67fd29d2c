// Package node 提供工作流节点共用的辅助函数
package node

import "strings"

// jsonModeRejections 提供商拒绝 JSON 模式时错误信息里出现的关键字组合，组内须全部命中
var jsonModeRejections = [][]string{
	{"response_format"},
	{"json_object", "not supported"},
	{"json mode", "not supported"},
	{"unknown parameter", "response"},
}

// IsResponseFormatUnsupportedError 判断提供商是否拒绝了 response_format 参数，
// 命中时调用方去掉该参数重试一次，仅靠提示词约束 JSON 输出
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// 限流与鉴权失败不重试
	if strings.Contains(msg, "status code: 429") || strings.Contains(msg, "status code: 401") {
		return false
	}
	for _, words := range jsonModeRejections {
		if containsAll(msg, words) {
			return true
		}
	}
	return false
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
