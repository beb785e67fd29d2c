package workspace

import (
	"context"
	"sync"

	"abricot-ai-api/internal/domain/entity"
	apperrors "abricot-ai-api/pkg/errors"
)

// TaskBackend 任务相关后端能力
type TaskBackend interface {
	ListProjectTasks(ctx context.Context, projectID string) ([]entity.Task, error)
	CreateTask(ctx context.Context, projectID string, in entity.CreateTaskInput) (*entity.Task, error)
	DeleteTask(ctx context.Context, projectID, taskID string) error
	AssignedTasks(ctx context.Context, userID string) ([]entity.Task, error)
}

// TaskStore 按项目缓存任务，另存一份分配给当前用户的任务
type TaskStore struct {
	backend TaskBackend

	mu        sync.RWMutex
	byProject map[string][]entity.Task
	assigned  []entity.Task
}

// NewTaskStore 创建任务缓存
func NewTaskStore(backend TaskBackend) *TaskStore {
	return &TaskStore{backend: backend, byProject: make(map[string][]entity.Task)}
}

// Tasks 项目任务缓存的拷贝
func (s *TaskStore) Tasks(projectID string) []entity.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Task(nil), s.byProject[projectID]...)
}

// Assigned 分配任务缓存的拷贝
func (s *TaskStore) Assigned() []entity.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Task(nil), s.assigned...)
}

// RefreshProject 重新拉取项目任务
func (s *TaskStore) RefreshProject(ctx context.Context, projectID string) error {
	tasks, err := s.backend.ListProjectTasks(ctx, projectID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.byProject[projectID] = tasks
	s.mu.Unlock()
	return nil
}

// RefreshAssigned 重新拉取分配给 userID 的任务
func (s *TaskStore) RefreshAssigned(ctx context.Context, userID string) error {
	tasks, err := s.backend.AssignedTasks(ctx, userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.assigned = tasks
	s.mu.Unlock()
	return nil
}

// CreateTask 只创建不刷新，供批量提交使用；批量结束后由调用方刷新一次
func (s *TaskStore) CreateTask(ctx context.Context, projectID string, in entity.CreateTaskInput) (*entity.Task, error) {
	if !entity.ValidTitle(in.Title) {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "task title must be 3 to 120 characters")
	}
	return s.backend.CreateTask(ctx, projectID, in)
}

// Create 创建单条任务并刷新项目任务
func (s *TaskStore) Create(ctx context.Context, projectID string, in entity.CreateTaskInput) (*entity.Task, error) {
	t, err := s.CreateTask(ctx, projectID, in)
	if err != nil {
		return nil, err
	}
	return t, s.RefreshProject(ctx, projectID)
}

// Delete 删除任务并刷新项目任务
func (s *TaskStore) Delete(ctx context.Context, projectID, taskID string) error {
	if err := s.backend.DeleteTask(ctx, projectID, taskID); err != nil {
		return err
	}
	return s.RefreshProject(ctx, projectID)
}

// RefreshHook 返回审阅提交成功后的刷新回调
func (s *TaskStore) RefreshHook(projectID string, onErr func(error)) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := s.RefreshProject(ctx, projectID); err != nil && onErr != nil {
			onErr(err)
		}
	}
}
