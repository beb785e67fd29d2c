// Package chain 定义基于 eino compose 的生成链
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"abricot-ai-api/internal/domain/entity"
	llmctx "abricot-ai-api/internal/domain/service"
	wfmodel "abricot-ai-api/internal/workflow/model"
	wfnode "abricot-ai-api/internal/workflow/node"
	workflowport "abricot-ai-api/internal/workflow/port"
	workflowprompt "abricot-ai-api/internal/workflow/prompt"
	"abricot-ai-api/pkg/logger"
)

// WorkflowTaskGeneration 指标与追踪中的工作流名
const WorkflowTaskGeneration = "task_generation"

var defaultPromptRegistry = workflowprompt.NewRegistry()

// TaskGenerationChain 提示词构建 -> LLM 调用，返回原始助手消息
type TaskGenerationChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.TaskGenerationInput, *schema.Message]
	chainErr  error
}

func NewTaskGenerationChain(factory workflowport.ChatModelFactory) *TaskGenerationChain {
	return &TaskGenerationChain{factory: factory}
}

func (c *TaskGenerationChain) Invoke(ctx context.Context, in *wfmodel.TaskGenerationInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	runnable, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return runnable.Invoke(ctx, in)
}

type taskGenerationState struct {
	In       *wfmodel.TaskGenerationInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *TaskGenerationChain) getChain() (compose.Runnable[*wfmodel.TaskGenerationInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *TaskGenerationChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.TaskGenerationInput, *schema.Message], error) {
	ch := compose.NewChain[*wfmodel.TaskGenerationInput, *schema.Message]()

	ch.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.TaskGenerationInput) (*taskGenerationState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &taskGenerationState{In: in}, nil
		}),
		compose.WithNodeName("task_generation.init"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *taskGenerationState) (*taskGenerationState, error) {
			msgs, err := FormatTaskGenerationMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("task_generation.template"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *taskGenerationState) (*taskGenerationState, error) {
			provider := strings.TrimSpace(st.In.Provider)
			ctx = llmctx.WithWorkflowProvider(ctx, WorkflowTaskGeneration, provider)

			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildTaskGenerationOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_object response format not supported, fallback to prompt-only",
					"provider", provider,
					"model", st.In.Model,
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildTaskGenerationOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("task_generation.llm"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *taskGenerationState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("task_generation.finalize"),
	)

	return ch.Compile(ctx)
}

// FormatTaskGenerationMessages 渲染三段式提示词：系统约束、范围限定、用户请求
func FormatTaskGenerationMessages(ctx context.Context, in *wfmodel.TaskGenerationInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptTaskGenerationV1)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(in.AppName)
	if appName == "" {
		appName = "Abricot"
	}
	projectBlock := ""
	if title := strings.TrimSpace(in.ProjectTitle); title != "" {
		projectBlock = "Projet: " + title + "\n"
	}

	vars := map[string]any{
		"app_name":        appName,
		"project_block":   projectBlock,
		"prompt":          strings.TrimSpace(in.Prompt),
		"status_values":   quotedAlternatives(entity.TaskStatuses),
		"priority_values": quotedAlternatives(entity.TaskPriorities),
		"min_tasks":       entity.GenerationMinTasks,
		"max_tasks":       entity.GenerationMaxTasks,
		"title_min":       entity.DraftTitleMinLen,
		"title_max":       entity.DraftTitleMaxLen,
	}
	return tpl.Format(ctx, vars)
}

func quotedAlternatives[T ~string](values []T) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, `"`+string(v)+`"`)
	}
	return strings.Join(parts, "|")
}

func buildTaskGenerationOptions(in *wfmodel.TaskGenerationInput, jsonMode bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil && *in.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	if jsonMode {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}
	return opts
}
