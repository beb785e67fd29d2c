package callback

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"abricot-ai-api/internal/domain/service"
	"abricot-ai-api/pkg/metrics"
)

func TestChatModelCallbacksRecordMetrics(t *testing.T) {
	h := newChatModelCallbackHandler()
	ctx := service.WithWorkflowProvider(context.Background(), "cb_test", "mistral")
	info := &einocb.RunInfo{Name: "task_generation.llm", Type: "OpenAI"}

	successBefore := testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("cb_test", "mistral", "mistral-large-latest", "success"))
	errorBefore := testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("cb_test", "mistral", "mistral-large-latest", "error"))
	promptBefore := testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("cb_test", "mistral", "mistral-large-latest", "prompt"))

	cfg := &model.Config{Model: "mistral-large-latest"}
	runCtx := h.OnStart(ctx, info, &model.CallbackInput{Config: cfg})
	h.OnEnd(runCtx, info, &model.CallbackOutput{
		Config:     cfg,
		TokenUsage: &model.TokenUsage{PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42},
	})

	runCtx = h.OnStart(ctx, info, &model.CallbackInput{Config: cfg})
	h.OnError(runCtx, info, errors.New("status code: 429"))

	assert.Equal(t, successBefore+1, testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("cb_test", "mistral", "mistral-large-latest", "success")))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("cb_test", "mistral", "mistral-large-latest", "error")))
	assert.Equal(t, promptBefore+12, testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("cb_test", "mistral", "mistral-large-latest", "prompt")))
}
