// Package restapi 封装任务/项目 REST 后端与生成代理的 HTTP 客户端
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"abricot-ai-api/internal/config"
	"abricot-ai-api/pkg/metrics"
	"abricot-ai-api/pkg/tracer"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// APIError 后端返回的非成功响应
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, msg, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// PublicMessage 可展示给用户的文案
func (e *APIError) PublicMessage() string {
	return e.Message
}

// Client 后端 REST 客户端，响应统一为 { success, data, message }
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient 创建客户端
func NewClient(cfg config.BackendConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

// WithToken 返回携带 Bearer 令牌的副本
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(token)
	return &cp
}

// Token 当前令牌
func (c *Client) Token() string {
	return c.token
}

// call 发起请求；out 非 nil 时把 data.<dataPath> 解码进去
func (c *Client) call(ctx context.Context, operation, method, path string, body any, dataPath string, out any) error {
	data, err := c.send(ctx, operation, method, path, body)
	if err != nil || out == nil {
		return err
	}
	if dataPath != "" {
		data = data.Get(dataPath)
	}
	if !data.Exists() || data.Type == gjson.Null {
		return fmt.Errorf("%s: response has no data.%s", operation, dataPath)
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// send 发起请求并返回响应中的 data 节点
func (c *Client) send(ctx context.Context, operation, method, path string, body any) (data gjson.Result, err error) {
	ctx, span := tracer.Start(ctx, "restapi."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		))
	status := 0
	defer func() {
		label := strconv.Itoa(status)
		if status == 0 {
			label = "error"
		}
		metrics.BackendCallTotal.WithLabelValues(operation, label).Inc()
		tracer.RecordError(span, err)
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return data, fmt.Errorf("encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return data, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return data, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return data, fmt.Errorf("read %s response: %w", operation, err)
	}

	if status >= http.StatusBadRequest || gjson.GetBytes(raw, "success").Type == gjson.False {
		return data, apiErrorFrom(status, raw)
	}
	return gjson.GetBytes(raw, "data"), nil
}

// apiErrorFrom 兼容 { message } 与生成代理的 { error, details } 两种错误体
func apiErrorFrom(status int, raw []byte) *APIError {
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	e := &APIError{Status: status}
	if !gjson.ValidBytes(raw) {
		e.Details = strings.TrimSpace(string(raw))
		return e
	}
	res := gjson.GetManyBytes(raw, "message", "error", "details")
	switch {
	case res[0].Type == gjson.String:
		e.Message = res[0].String()
	case res[1].Type == gjson.String:
		e.Message = res[1].String()
	}
	e.Details = res[2].String()
	return e
}
