package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"abricot-ai-api/internal/application/taskgen"
	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/internal/interfaces/http/handler"
)

type okGenerator struct{}

func (okGenerator) Generate(context.Context, taskgen.GenerationRequest) (*entity.GenerationResult, error) {
	return &entity.GenerationResult{Tasks: []entity.TaskDraft{{
		Title: "Write release notes", Status: entity.TaskStatusTodo, Priority: entity.TaskPriorityMedium,
	}}}, nil
}

type denyAll struct{ keys []string }

func (d *denyAll) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	d.keys = append(d.keys, key)
	return false, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "abricot-ai-api"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	cfg.TaskGen.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute}
	return cfg
}

func newTestRouter(limiter *denyAll) *Router {
	gin.SetMode(gin.TestMode)
	h := Handlers{
		Health:  handler.NewHealthHandler("test"),
		TaskGen: handler.NewTaskGenHandler(okGenerator{}),
	}
	if limiter == nil {
		return New(testConfig(), h, nil)
	}
	return New(testConfig(), h, limiter)
}

func serve(r *Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestGenerateRouteAndAlias(t *testing.T) {
	r := newTestRouter(nil)

	for _, path := range []string{"/api/ai/generate-tasks", "/v1/ai/generate-tasks"} {
		w := serve(r, http.MethodPost, path, `{"prompt":"Plan the release"}`)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "Write release notes")
	}
}

func TestProbeAndMetricsRoutes(t *testing.T) {
	r := newTestRouter(nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "").Code)
}

func TestGenerateRouteIsRateLimited(t *testing.T) {
	limiter := &denyAll{}
	r := newTestRouter(limiter)

	w := serve(r, http.MethodPost, "/api/ai/generate-tasks", `{"prompt":"Plan the release"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, []string{"abricot:ratelimit:ip:192.0.2.1:/api/ai/generate-tasks"}, limiter.keys)

	// 探针不受限流影响
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
}
