package entity

import "time"

// ProjectRole 项目成员角色
type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "OWNER"
	ProjectRoleAdmin  ProjectRole = "ADMIN"
	ProjectRoleMember ProjectRole = "MEMBER"
)

// Project 项目
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	OwnerID     string          `json:"ownerId,omitempty"`
	Owner       *User           `json:"owner,omitempty"`
	Members     []ProjectMember `json:"members,omitempty"`
	Count       *ProjectCount   `json:"_count,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProjectMember 项目成员
type ProjectMember struct {
	ID       string      `json:"id"`
	Role     ProjectRole `json:"role"`
	User     User        `json:"user"`
	JoinedAt time.Time   `json:"joinedAt"`
}

// ProjectCount 项目聚合计数
type ProjectCount struct {
	Tasks int `json:"tasks"`
}

// CreateProjectInput 创建项目请求体
type CreateProjectInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Contributors []string `json:"contributors,omitempty"`
}

// UpdateProjectInput 更新项目请求体
type UpdateProjectInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}
