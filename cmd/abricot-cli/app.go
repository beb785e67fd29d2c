package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"abricot-ai-api/internal/application/workspace"
	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/infrastructure/restapi"
	"abricot-ai-api/pkg/logger"
)

var errNotLoggedIn = errors.New("not logged in, run `abricot login` first")

// cliApp 命令共享的依赖
type cliApp struct {
	backendURL  string
	generateURL string
	tokenPath   string

	cfg      *config.Config
	api      *restapi.Client
	gen      *restapi.GenerationClient
	tokens   *tokenStore
	projects *workspace.ProjectStore
	tasks    *workspace.TaskStore
}

var app = &cliApp{}

func (a *cliApp) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// 命令行输出给人看，日志只留警告以上
	logger.InitWithWriter(os.Stderr, "warn", "text")

	if a.backendURL != "" {
		cfg.Backend.BaseURL = a.backendURL
	}
	if a.generateURL != "" {
		cfg.Backend.GenerateURL = a.generateURL
	}
	if cfg.Backend.GenerateURL == "" {
		cfg.Backend.GenerateURL = strings.TrimRight(cfg.Backend.BaseURL, "/") + "/api/ai/generate-tasks"
	}

	path := a.tokenPath
	if path == "" {
		path, err = defaultTokenPath()
		if err != nil {
			return err
		}
	}
	a.tokens = &tokenStore{path: path}

	token, err := a.tokens.Load()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.api = restapi.NewClient(cfg.Backend, nil).WithToken(token)
	a.gen = restapi.NewGenerationClient(cfg.Backend.GenerateURL, nil).WithToken(token)
	a.projects = workspace.NewProjectStore(a.api)
	a.tasks = workspace.NewTaskStore(a.api)
	return nil
}

func (a *cliApp) requireLogin() error {
	if a.api.Token() == "" {
		return errNotLoggedIn
	}
	return nil
}

// tokenStore 会话令牌持久化到单个文件
type tokenStore struct {
	path string
}

func defaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "abricot", "token"), nil
}

// Load 没有令牌时返回空串
func (s *tokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *tokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(s.path, []byte(token+"\n"), 0o600)
}

func (s *tokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
