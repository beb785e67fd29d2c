package taskgen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/internal/infrastructure/llm"
	wfmodel "abricot-ai-api/internal/workflow/model"
	apperrors "abricot-ai-api/pkg/errors"
)

const testKeyEnv = "ABRICOT_TASKGEN_TEST_KEY"

type fakeCompleter struct {
	InvokeFunc func(ctx context.Context, in *wfmodel.TaskGenerationInput) (*schema.Message, error)
	calls      []*wfmodel.TaskGenerationInput
}

func (f *fakeCompleter) Invoke(ctx context.Context, in *wfmodel.TaskGenerationInput) (*schema.Message, error) {
	f.calls = append(f.calls, in)
	return f.InvokeFunc(ctx, in)
}

type staticProviders map[string]config.ProviderConfig

func (p staticProviders) Provider(name string) (string, config.ProviderConfig, error) {
	c, ok := p[name]
	if !ok {
		return name, config.ProviderConfig{}, errors.New("provider " + name + " not found in LLM config")
	}
	return name, c, nil
}

type captureRecorder struct {
	mu     sync.Mutex
	events []*entity.GenerationEvent
}

func (r *captureRecorder) Record(_ context.Context, e *entity.GenerationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *captureRecorder) last(t *testing.T) *entity.GenerationEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events)
	return r.events[len(r.events)-1]
}

func newTestService(t *testing.T, completer Completer) (*Service, *captureRecorder) {
	t.Helper()
	cfg := &config.Config{TaskGen: config.TaskGenConfig{Provider: "mistral", AppName: "Abricot"}}
	providers := staticProviders{"mistral": {
		APIKeyEnv:   testKeyEnv,
		Model:       "mistral-large-latest",
		Temperature: 0.2,
	}}
	rec := &captureRecorder{}
	return NewService(cfg, completer, providers, rec), rec
}

func assistant(content string) *schema.Message {
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 80, TotalTokens: 200},
		},
	}
}

func TestGenerateOnboardingScenario(t *testing.T) {
	t.Setenv(testKeyEnv, "secret")
	completer := &fakeCompleter{InvokeFunc: func(context.Context, *wfmodel.TaskGenerationInput) (*schema.Message, error) {
		return assistant(onboardingResponse), nil
	}}
	svc, rec := newTestService(t, completer)

	result, err := svc.Generate(context.Background(), GenerationRequest{
		Prompt:       "  Add three onboarding tasks for new hires  ",
		ProjectTitle: " RH ",
	})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 3)
	for _, d := range result.Tasks {
		assert.Equal(t, "", d.Description)
	}

	require.Len(t, completer.calls, 1)
	in := completer.calls[0]
	assert.Equal(t, "Add three onboarding tasks for new hires", in.Prompt)
	assert.Equal(t, "RH", in.ProjectTitle)
	assert.Equal(t, "mistral-large-latest", in.Model)
	require.NotNil(t, in.Temperature)
	assert.InDelta(t, 0.2, *in.Temperature, 1e-6)
	assert.Nil(t, in.MaxTokens)

	ev := rec.last(t)
	assert.Equal(t, entity.GenerationOutcomeSuccess, ev.Outcome)
	assert.Equal(t, 3, ev.DraftCount)
	assert.Equal(t, 120, ev.TokensPrompt)
	assert.Equal(t, 80, ev.TokensCompletion)
}

func TestGenerateChecksCredentialBeforePrompt(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	completer := &fakeCompleter{}
	svc, rec := newTestService(t, completer)

	_, err := svc.Generate(context.Background(), GenerationRequest{Prompt: ""})

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeConfigurationError, appErr.Code)
	assert.Equal(t, "Missing "+testKeyEnv, appErr.Message)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.Empty(t, completer.calls)
	assert.Equal(t, entity.GenerationOutcomeConfiguration, rec.last(t).Outcome)
	assert.Error(t, svc.Ready())
}

func TestGenerateRejectsBlankPrompt(t *testing.T) {
	t.Setenv(testKeyEnv, "secret")
	completer := &fakeCompleter{}
	svc, _ := newTestService(t, completer)

	_, err := svc.Generate(context.Background(), GenerationRequest{Prompt: " \n\t "})

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInvalidRequest, appErr.Code)
	assert.Equal(t, MsgPromptRequired, appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Empty(t, completer.calls)
	assert.NoError(t, svc.Ready())
}

func TestGenerateEmptyTasksIsSchemaError(t *testing.T) {
	t.Setenv(testKeyEnv, "secret")
	svc, rec := newTestService(t, &fakeCompleter{InvokeFunc: func(context.Context, *wfmodel.TaskGenerationInput) (*schema.Message, error) {
		return assistant(`{"tasks":[]}`), nil
	}})

	result, err := svc.Generate(context.Background(), GenerationRequest{Prompt: "Plan the release"})
	assert.Nil(t, result)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeSchemaValidation, appErr.Code)
	assert.Equal(t, MsgInvalidAIResponse, appErr.Message)
	assert.Equal(t, "tasks must contain between 1 and 30 items, got 0", appErr.Detail)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)

	var schemaErr *SchemaValidationError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, entity.GenerationOutcomeSchema, rec.last(t).Outcome)
}

// 通过真实的捕获 Transport 走一次 HTTP，模拟 SDK 在上游 429 时返回错误
func TestGenerateUpstreamStatusPassthrough(t *testing.T) {
	t.Setenv(testKeyEnv, "secret")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"Requests rate limit exceeded"}`))
	}))
	defer upstream.Close()

	completer := &fakeCompleter{InvokeFunc: func(ctx context.Context, _ *wfmodel.TaskGenerationInput) (*schema.Message, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, upstream.URL+"/chat/completions", nil)
		if err != nil {
			return nil, err
		}
		resp, err := (&http.Client{Transport: llm.NewCaptureTransport(nil)}).Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return nil, errors.New("error, status code: 429")
	}}
	svc, rec := newTestService(t, completer)

	_, err := svc.Generate(context.Background(), GenerationRequest{Prompt: "Plan the release"})

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeExternalService, appErr.Code)
	assert.Equal(t, "Mistral API error", appErr.Message)
	assert.Equal(t, http.StatusTooManyRequests, appErr.HTTPStatus)
	assert.Equal(t, `{"message":"Requests rate limit exceeded"}`, appErr.Detail)

	ev := rec.last(t)
	assert.Equal(t, entity.GenerationOutcomeUpstream, ev.Outcome)
	assert.Equal(t, http.StatusTooManyRequests, ev.UpstreamStatus)
}

func TestGenerateTransportFailureIsUnexpected(t *testing.T) {
	t.Setenv(testKeyEnv, "secret")
	svc, _ := newTestService(t, &fakeCompleter{InvokeFunc: func(context.Context, *wfmodel.TaskGenerationInput) (*schema.Message, error) {
		return nil, errors.New("dial tcp: connection refused")
	}})

	_, err := svc.Generate(context.Background(), GenerationRequest{Prompt: "Plan the release"})

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInternalError, appErr.Code)
	assert.Equal(t, MsgUnexpected, appErr.Message)
	assert.Equal(t, "dial tcp: connection refused", appErr.Detail)
}

func TestGenerateUnknownProvider(t *testing.T) {
	cfg := &config.Config{TaskGen: config.TaskGenConfig{Provider: "openai"}}
	svc := NewService(cfg, &fakeCompleter{}, staticProviders{}, nil)

	_, err := svc.Generate(context.Background(), GenerationRequest{Prompt: "Plan the release"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigurationError))
}

func TestProviderDisplayName(t *testing.T) {
	assert.Equal(t, "Mistral", providerDisplayName("mistral"))
	assert.Equal(t, "LLM", providerDisplayName(" "))
}
