package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abricot-ai-api/internal/application/taskgen"
	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/internal/interfaces/http/dto"
	apperrors "abricot-ai-api/pkg/errors"
)

type stubGenerator struct {
	result *entity.GenerationResult
	err    error
	got    *taskgen.GenerationRequest
}

func (s *stubGenerator) Generate(_ context.Context, req taskgen.GenerationRequest) (*entity.GenerationResult, error) {
	s.got = &req
	return s.result, s.err
}

func newTaskGenEngine(gen TaskGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/ai/generate-tasks", NewTaskGenHandler(gen).GenerateTasks)
	return r
}

func postGenerate(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGenerateTasksSuccess(t *testing.T) {
	gen := &stubGenerator{result: &entity.GenerationResult{Tasks: []entity.TaskDraft{
		{Title: "Prepare onboarding checklist", Status: entity.TaskStatusTodo, Priority: entity.TaskPriorityMedium},
	}}}
	w := postGenerate(t, newTaskGenEngine(gen), `{"prompt":"Add onboarding tasks","projectTitle":"RH"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"data":{"tasks":[{"title":"Prepare onboarding checklist","description":"","status":"TODO","priority":"MEDIUM"}]}}`,
		w.Body.String())
	require.NotNil(t, gen.got)
	assert.Equal(t, "Add onboarding tasks", gen.got.Prompt)
	assert.Equal(t, "RH", gen.got.ProjectTitle)
}

func TestGenerateTasksUpstreamPassthrough(t *testing.T) {
	gen := &stubGenerator{err: apperrors.New(apperrors.CodeExternalService, "Mistral API error").
		WithStatus(http.StatusTooManyRequests).
		WithDetail(`{"message":"Requests rate limit exceeded"}`)}
	w := postGenerate(t, newTaskGenEngine(gen), `{"prompt":"x"}`)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Mistral API error", resp.Error)
	assert.Equal(t, `{"message":"Requests rate limit exceeded"}`, resp.Details)
}

func TestGenerateTasksMissingCredential(t *testing.T) {
	gen := &stubGenerator{err: apperrors.New(apperrors.CodeConfigurationError, "Missing MISTRAL_API_KEY")}
	w := postGenerate(t, newTaskGenEngine(gen), `{"prompt":""}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Missing MISTRAL_API_KEY", resp.Error)
	assert.Empty(t, resp.Details)
}

func TestGenerateTasksPromptRequired(t *testing.T) {
	gen := &stubGenerator{err: apperrors.New(apperrors.CodeInvalidRequest, taskgen.MsgPromptRequired)}
	w := postGenerate(t, newTaskGenEngine(gen), `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Prompt is required", decodeError(t, w).Error)
}

func TestGenerateTasksMalformedBody(t *testing.T) {
	gen := &stubGenerator{}
	w := postGenerate(t, newTaskGenEngine(gen), `{"prompt":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, w).Error)
	assert.Nil(t, gen.got)
}

func TestGenerateTasksPlainErrorIsInternal(t *testing.T) {
	gen := &stubGenerator{err: assert.AnError}
	w := postGenerate(t, newTaskGenEngine(gen), `{"prompt":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Unexpected error", resp.Error)
	assert.Equal(t, assert.AnError.Error(), resp.Details)
}
