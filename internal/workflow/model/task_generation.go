// Package model 定义工作流输入输出
package model

// TaskGenerationInput 任务生成链输入
type TaskGenerationInput struct {
	Provider string
	Model    string
	AppName  string

	Prompt       string
	ProjectTitle string

	Temperature *float32
	MaxTokens   *int
}
