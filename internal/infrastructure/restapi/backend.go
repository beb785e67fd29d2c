package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"abricot-ai-api/internal/domain/entity"
)

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 登录
func (c *Client) Login(ctx context.Context, email, password string) (*entity.AuthSession, error) {
	var out entity.AuthSession
	err := c.call(ctx, "auth.login", http.MethodPost, "/auth/login",
		credentials{Email: email, Password: password}, "", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register 注册
func (c *Client) Register(ctx context.Context, name, email, password string) (*entity.AuthSession, error) {
	var out entity.AuthSession
	err := c.call(ctx, "auth.register", http.MethodPost, "/auth/register",
		credentials{Name: name, Email: email, Password: password}, "", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile 当前用户
func (c *Client) Profile(ctx context.Context) (*entity.User, error) {
	var out entity.User
	if err := c.call(ctx, "auth.profile", http.MethodGet, "/auth/profile", nil, "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile 更新姓名与邮箱
func (c *Client) UpdateProfile(ctx context.Context, name, email string) (*entity.User, error) {
	var out entity.User
	body := map[string]string{"name": name, "email": email}
	if err := c.call(ctx, "auth.update_profile", http.MethodPut, "/auth/profile", body, "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects 当前用户可见的项目
func (c *Client) ListProjects(ctx context.Context) ([]entity.Project, error) {
	var out []entity.Project
	if err := c.call(ctx, "projects.list", http.MethodGet, "/projects", nil, "projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject 项目详情
func (c *Client) GetProject(ctx context.Context, projectID string) (*entity.Project, error) {
	var out entity.Project
	if err := c.call(ctx, "projects.get", http.MethodGet, "/projects/"+url.PathEscape(projectID), nil, "project", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject 创建项目
func (c *Client) CreateProject(ctx context.Context, in entity.CreateProjectInput) (*entity.Project, error) {
	var out entity.Project
	if err := c.call(ctx, "projects.create", http.MethodPost, "/projects", in, "project", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject 更新项目
func (c *Client) UpdateProject(ctx context.Context, projectID string, in entity.UpdateProjectInput) error {
	return c.call(ctx, "projects.update", http.MethodPut, "/projects/"+url.PathEscape(projectID), in, "", nil)
}

// DeleteProject 删除项目
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.call(ctx, "projects.delete", http.MethodDelete, "/projects/"+url.PathEscape(projectID), nil, "", nil)
}

// ListContributors 全部可邀请的用户
func (c *Client) ListContributors(ctx context.Context) ([]entity.User, error) {
	var out []entity.User
	if err := c.call(ctx, "contributors.list", http.MethodGet, "/contributors", nil, "contributors", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProjectContributors 项目成员
func (c *Client) ProjectContributors(ctx context.Context, projectID string) ([]entity.User, error) {
	var out []entity.User
	path := "/projects/" + url.PathEscape(projectID) + "/contributors"
	if err := c.call(ctx, "projects.contributors", http.MethodGet, path, nil, "contributors", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddContributor 按邮箱邀请成员
func (c *Client) AddContributor(ctx context.Context, projectID, email string) error {
	path := "/projects/" + url.PathEscape(projectID) + "/contributors"
	return c.call(ctx, "projects.add_contributor", http.MethodPost, path, map[string]string{"email": email}, "", nil)
}

// RemoveContributor 移除成员
func (c *Client) RemoveContributor(ctx context.Context, projectID, userID string) error {
	path := "/projects/" + url.PathEscape(projectID) + "/contributors/" + url.PathEscape(userID)
	return c.call(ctx, "projects.remove_contributor", http.MethodDelete, path, nil, "", nil)
}

// ListProjectTasks 项目下的任务
func (c *Client) ListProjectTasks(ctx context.Context, projectID string) ([]entity.Task, error) {
	var out []entity.Task
	path := "/projects/" + url.PathEscape(projectID) + "/tasks"
	if err := c.call(ctx, "tasks.list", http.MethodGet, path, nil, "tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask 在项目下创建任务；后端未返回任务体时用请求字段补全
func (c *Client) CreateTask(ctx context.Context, projectID string, in entity.CreateTaskInput) (*entity.Task, error) {
	path := "/projects/" + url.PathEscape(projectID) + "/tasks"
	data, err := c.send(ctx, "tasks.create", http.MethodPost, path, in)
	if err != nil {
		return nil, err
	}

	var out entity.Task
	if t := data.Get("task"); t.IsObject() {
		if err := json.Unmarshal([]byte(t.Raw), &out); err != nil {
			return nil, fmt.Errorf("decode tasks.create response: %w", err)
		}
		return &out, nil
	}
	out = entity.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		ProjectID:   projectID,
	}
	return &out, nil
}

// DeleteTask 删除任务
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	path := "/projects/" + url.PathEscape(projectID) + "/tasks/" + url.PathEscape(taskID)
	return c.call(ctx, "tasks.delete", http.MethodDelete, path, nil, "", nil)
}

// AssignedTasks 分配给用户的任务
func (c *Client) AssignedTasks(ctx context.Context, userID string) ([]entity.Task, error) {
	var out []entity.Task
	path := "/dashboard/assigned-tasks"
	if userID != "" {
		path += "?" + url.Values{"userId": {userID}}.Encode()
	}
	if err := c.call(ctx, "tasks.assigned", http.MethodGet, path, nil, "tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}
