// Package taskgen 实现 AI 任务生成：凭据与入参校验 -> LLM 调用 -> 输出严格校验
package taskgen

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/internal/domain/service"
	"abricot-ai-api/internal/infrastructure/llm"
	wfmodel "abricot-ai-api/internal/workflow/model"
	apperrors "abricot-ai-api/pkg/errors"
	"abricot-ai-api/pkg/logger"
	"abricot-ai-api/pkg/metrics"
)

// 对外错误文案（与前端约定，勿随意修改）
const (
	MsgPromptRequired    = "Prompt is required"
	MsgInvalidAIResponse = "Invalid AI response"
	MsgUnexpected        = "Unexpected error"
)

// GenerationRequest 一次生成请求
type GenerationRequest struct {
	Prompt       string
	ProjectTitle string
}

// Completer 执行提示词渲染与模型调用
type Completer interface {
	Invoke(ctx context.Context, in *wfmodel.TaskGenerationInput) (*schema.Message, error)
}

// ProviderResolver 解析提供商配置
type ProviderResolver interface {
	Provider(name string) (string, config.ProviderConfig, error)
}

// Service 任务生成服务，无状态，可安全重试
type Service struct {
	completer Completer
	providers ProviderResolver
	recorder  service.GenerationRecorder

	provider string
	appName  string
}

// NewService 创建任务生成服务
func NewService(cfg *config.Config, completer Completer, providers ProviderResolver, recorder service.GenerationRecorder) *Service {
	if recorder == nil {
		recorder = service.NoopGenerationRecorder{}
	}
	return &Service{
		completer: completer,
		providers: providers,
		recorder:  recorder,
		provider:  cfg.TaskGen.Provider,
		appName:   cfg.TaskGen.AppName,
	}
}

// Ready 报告凭据是否已配置（就绪探针使用）
func (s *Service) Ready() error {
	name, p, err := s.providers.Provider(s.provider)
	if err != nil {
		return err
	}
	if p.ResolveAPIKey() == "" {
		return &llm.ErrMissingCredential{Provider: name, Name: p.CredentialName()}
	}
	return nil
}

// Generate 执行一次生成
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (*entity.GenerationResult, error) {
	start := time.Now()

	name, providerCfg, err := s.providers.Provider(s.provider)
	if err != nil {
		appErr := apperrors.Wrap(err, apperrors.CodeConfigurationError, "LLM provider not configured")
		s.finish(ctx, start, newEvent(name, providerCfg, entity.GenerationOutcomeConfiguration), nil)
		return nil, appErr
	}
	event := newEvent(name, providerCfg, "")

	if providerCfg.ResolveAPIKey() == "" {
		event.Outcome = entity.GenerationOutcomeConfiguration
		s.finish(ctx, start, event, nil)
		return nil, apperrors.New(apperrors.CodeConfigurationError, "Missing "+providerCfg.CredentialName())
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		event.Outcome = entity.GenerationOutcomeInvalidRequest
		s.finish(ctx, start, event, nil)
		return nil, apperrors.New(apperrors.CodeInvalidRequest, MsgPromptRequired)
	}
	event.PromptChars = utf8.RuneCountInString(prompt)

	ctx = llm.WithUpstreamCapture(ctx)
	outMsg, err := s.completer.Invoke(ctx, &wfmodel.TaskGenerationInput{
		Provider:     name,
		Model:        providerCfg.Model,
		AppName:      s.appName,
		Prompt:       prompt,
		ProjectTitle: strings.TrimSpace(req.ProjectTitle),
		Temperature:  ptrFloat32(float32(providerCfg.Temperature)),
		MaxTokens:    ptrInt(providerCfg.MaxTokens),
	})
	if err == nil && outMsg == nil {
		err = errors.New("empty llm response")
	}
	if err != nil {
		appErr := s.classifyCallError(ctx, name, err, event)
		logger.Warn(ctx, "task generation llm call failed",
			"provider", name,
			"outcome", string(event.Outcome),
			"upstream_status", event.UpstreamStatus,
			"error", err.Error(),
		)
		s.finish(ctx, start, event, nil)
		return nil, appErr
	}
	recordUsage(event, outMsg)

	result, err := ParseGenerationResult(outMsg.Content)
	if err != nil {
		event.Outcome = entity.GenerationOutcomeSchema
		s.finish(ctx, start, event, nil)

		var schemaErr *SchemaValidationError
		detail := err.Error()
		if errors.As(err, &schemaErr) {
			detail = strings.Join(schemaErr.Issues, "; ")
		}
		logger.Warn(ctx, "task generation output rejected", "issues", detail)
		return nil, apperrors.Wrap(err, apperrors.CodeSchemaValidation, MsgInvalidAIResponse).WithDetail(detail)
	}

	event.Outcome = entity.GenerationOutcomeSuccess
	event.DraftCount = len(result.Tasks)
	s.finish(ctx, start, event, result)
	return result, nil
}

// classifyCallError 把模型调用失败映射为对外错误：上游非 2xx 透传状态码与原始响应体
func (s *Service) classifyCallError(ctx context.Context, provider string, err error, event *entity.GenerationEvent) *apperrors.AppError {
	if failure, ok := llm.UpstreamFailureFromContext(ctx); ok {
		event.Outcome = entity.GenerationOutcomeUpstream
		event.UpstreamStatus = failure.StatusCode
		return apperrors.New(apperrors.CodeExternalService, providerDisplayName(provider)+" API error").
			WithStatus(failure.StatusCode).
			WithDetail(failure.Body).
			WithError(err)
	}

	var missing *llm.ErrMissingCredential
	if errors.As(err, &missing) {
		event.Outcome = entity.GenerationOutcomeConfiguration
		return apperrors.Wrap(err, apperrors.CodeConfigurationError, "Missing "+missing.Name)
	}

	event.Outcome = entity.GenerationOutcomeUnexpected
	return apperrors.Wrap(err, apperrors.CodeInternalError, MsgUnexpected).WithDetail(err.Error())
}

func (s *Service) finish(ctx context.Context, start time.Time, event *entity.GenerationEvent, result *entity.GenerationResult) {
	elapsed := time.Since(start)
	event.DurationMs = int(elapsed.Milliseconds())
	if v, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		event.RequestID = v
	}
	if v, ok := ctx.Value(logger.UserIDKey).(string); ok {
		event.UserID = v
	}

	metrics.TaskGenerationTotal.WithLabelValues(string(event.Outcome)).Inc()
	metrics.TaskGenerationDuration.Observe(elapsed.Seconds())
	if result != nil {
		metrics.TaskGenerationDrafts.Observe(float64(len(result.Tasks)))
	}

	s.recorder.Record(ctx, event)
}

func newEvent(provider string, p config.ProviderConfig, outcome entity.GenerationOutcome) *entity.GenerationEvent {
	return entity.NewGenerationEvent(provider, p.Model, outcome)
}

func recordUsage(event *entity.GenerationEvent, msg *schema.Message) {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	event.TokensPrompt = msg.ResponseMeta.Usage.PromptTokens
	event.TokensCompletion = msg.ResponseMeta.Usage.CompletionTokens
}

// providerDisplayName mistral -> Mistral
func providerDisplayName(provider string) string {
	p := strings.TrimSpace(provider)
	if p == "" {
		return "LLM"
	}
	r, size := utf8.DecodeRuneInString(p)
	return strings.ToUpper(string(r)) + p[size:]
}

func ptrFloat32(f float32) *float32 {
	return &f
}

func ptrInt(i int) *int {
	if i <= 0 {
		return nil
	}
	return &i
}
