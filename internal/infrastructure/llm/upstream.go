package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

// maxCapturedBody 上游错误响应体的最大保留字节数
const maxCapturedBody = 64 << 10

// UpstreamFailure 上游返回的非 2xx 响应
type UpstreamFailure struct {
	StatusCode int
	Body       string
}

type upstreamCaptureKey struct{}

type upstreamCapture struct {
	mu      sync.Mutex
	failure *UpstreamFailure
}

// WithUpstreamCapture 在 context 中挂载一次请求范围的上游响应捕获器
func WithUpstreamCapture(ctx context.Context) context.Context {
	return context.WithValue(ctx, upstreamCaptureKey{}, &upstreamCapture{})
}

// UpstreamFailureFromContext 返回本次请求最后一次捕获到的上游错误
func UpstreamFailureFromContext(ctx context.Context) (*UpstreamFailure, bool) {
	c, ok := ctx.Value(upstreamCaptureKey{}).(*upstreamCapture)
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure == nil {
		return nil, false
	}
	f := *c.failure
	return &f, true
}

// captureTransport 记录非 2xx 响应的状态码与原始响应体，并把响应体还给 SDK 继续解析
type captureTransport struct {
	base http.RoundTripper
}

// NewCaptureTransport 包装 base（nil 时使用 http.DefaultTransport）
func NewCaptureTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &captureTransport{base: base}
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	c, ok := req.Context().Value(upstreamCaptureKey{}).(*upstreamCapture)
	if !ok {
		return resp, err
	}
	if err != nil || resp == nil || resp.StatusCode < http.StatusBadRequest {
		// 只保留最后一次尝试的失败：重试成功或在网络层失败时清掉之前的记录
		c.mu.Lock()
		c.failure = nil
		c.mu.Unlock()
		return resp, err
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxCapturedBody))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if readErr != nil && len(body) == 0 {
		body = []byte(readErr.Error())
	}

	c.mu.Lock()
	c.failure = &UpstreamFailure{StatusCode: resp.StatusCode, Body: string(body)}
	c.mu.Unlock()
	return resp, nil
}
