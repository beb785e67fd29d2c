// Package workspace 提供项目与任务的客户端缓存，由组合根创建并注入
package workspace

import (
	"context"
	"strings"
	"sync"

	"abricot-ai-api/internal/domain/entity"
	apperrors "abricot-ai-api/pkg/errors"
)

// ProjectBackend 项目相关后端能力
type ProjectBackend interface {
	ListProjects(ctx context.Context) ([]entity.Project, error)
	CreateProject(ctx context.Context, in entity.CreateProjectInput) (*entity.Project, error)
	UpdateProject(ctx context.Context, projectID string, in entity.UpdateProjectInput) error
	DeleteProject(ctx context.Context, projectID string) error
	AddContributor(ctx context.Context, projectID, email string) error
	RemoveContributor(ctx context.Context, projectID, userID string) error
}

// ProjectStore 项目列表缓存，每次变更后刷新
type ProjectStore struct {
	backend ProjectBackend

	mu       sync.RWMutex
	projects []entity.Project
	loaded   bool
}

// NewProjectStore 创建项目缓存
func NewProjectStore(backend ProjectBackend) *ProjectStore {
	return &ProjectStore{backend: backend}
}

// Projects 当前缓存的拷贝
func (s *ProjectStore) Projects() []entity.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Project(nil), s.projects...)
}

// Loaded 是否已成功加载过
func (s *ProjectStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Find 按 ID 或名称（不区分大小写）查找缓存中的项目
func (s *ProjectStore) Find(ref string) (*entity.Project, bool) {
	ref = strings.TrimSpace(ref)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.projects {
		p := s.projects[i]
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return &p, true
		}
	}
	return nil, false
}

// Refresh 重新拉取项目列表；失败时保留旧缓存
func (s *ProjectStore) Refresh(ctx context.Context) error {
	projects, err := s.backend.ListProjects(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.projects = projects
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Create 创建项目
func (s *ProjectStore) Create(ctx context.Context, in entity.CreateProjectInput) (*entity.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "project name is required")
	}
	p, err := s.backend.CreateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	return p, s.Refresh(ctx)
}

// Update 更新项目
func (s *ProjectStore) Update(ctx context.Context, projectID string, in entity.UpdateProjectInput) error {
	if err := s.backend.UpdateProject(ctx, projectID, in); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Delete 删除项目
func (s *ProjectStore) Delete(ctx context.Context, projectID string) error {
	if err := s.backend.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// AddContributor 邀请成员
func (s *ProjectStore) AddContributor(ctx context.Context, projectID, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.New(apperrors.CodeInvalidRequest, "contributor email is required")
	}
	if err := s.backend.AddContributor(ctx, projectID, email); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// RemoveContributor 移除成员
func (s *ProjectStore) RemoveContributor(ctx context.Context, projectID, userID string) error {
	if err := s.backend.RemoveContributor(ctx, projectID, userID); err != nil {
		return err
	}
	return s.Refresh(ctx)
}
