// Package llm 提供 LLM ChatModel 的创建与上游响应捕获
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"abricot-ai-api/internal/config"
)

// ErrMissingCredential 提供商未配置凭据
type ErrMissingCredential struct {
	Provider string
	Name     string
}

func (e *ErrMissingCredential) Error() string {
	return fmt.Sprintf("missing credential %s for provider %s", e.Name, e.Provider)
}

// EinoFactory 管理 Eino ChatModel 实例。
// 凭据在每次 Get 时解析，缓存按 (provider, 凭据指纹) 区分，轮换密钥无需重启。
type EinoFactory struct {
	config    *config.LLMConfig
	transport http.RoundTripper

	mu     sync.RWMutex
	models map[string]model.BaseChatModel
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config:    &cfg.LLM,
		transport: NewCaptureTransport(nil),
		models:    make(map[string]model.BaseChatModel),
	}
}

// Provider 返回提供商配置，name 为空时使用默认提供商
func (f *EinoFactory) Provider(name string) (string, config.ProviderConfig, error) {
	if strings.TrimSpace(name) == "" {
		name = f.config.DefaultProvider
	}
	p, ok := f.config.Providers[name]
	if !ok {
		return name, config.ProviderConfig{}, fmt.Errorf("provider %s not found in LLM config", name)
	}
	return name, p, nil
}

// Get 获取指定名称的 ChatModel
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	name, providerCfg, err := f.Provider(name)
	if err != nil {
		return nil, err
	}
	apiKey := providerCfg.ResolveAPIKey()
	if apiKey == "" {
		return nil, &ErrMissingCredential{Provider: name, Name: providerCfg.CredentialName()}
	}
	cacheKey := name + ":" + fingerprint(apiKey)

	f.mu.RLock()
	m, ok := f.models[cacheKey]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok = f.models[cacheKey]; ok {
		return m, nil
	}

	modelCfg := &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     providerCfg.BaseURL,
		Model:       providerCfg.Model,
		Temperature: ptrFloat32(float32(providerCfg.Temperature)),
		Timeout:     providerCfg.Timeout,
		HTTPClient: &http.Client{
			Timeout:   providerCfg.Timeout,
			Transport: f.transport,
		},
	}
	if providerCfg.MaxTokens > 0 {
		modelCfg.MaxTokens = &providerCfg.MaxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	// 旧密钥对应的实例不再可达
	for k := range f.models {
		if strings.HasPrefix(k, name+":") {
			delete(f.models, k)
		}
	}
	f.models[cacheKey] = chatModel
	return chatModel, nil
}

// Default 返回默认 ChatModel
func (f *EinoFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

func fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:8])
}

func ptrFloat32(f float32) *float32 {
	return &f
}
