// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// TaskStatuses 允许的任务状态（顺序用于提示词）
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

// Valid 是否为允许的状态
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// TaskPriority 任务优先级
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// TaskPriorities 允许的优先级
var TaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}

// Valid 是否为允许的优先级
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// 任务草稿字段约束
const (
	DraftTitleMinLen       = 3
	DraftTitleMaxLen       = 120
	DraftDescriptionMaxLen = 2000
	GenerationMinTasks     = 1
	GenerationMaxTasks     = 30
)

// TaskDraft AI 生成、尚未持久化的任务草稿
type TaskDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
}

// ValidTitle 标题长度（按字符计）是否在允许范围内
func ValidTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n >= DraftTitleMinLen && n <= DraftTitleMaxLen
}

// ValidDescription 描述长度是否在允许范围内
func ValidDescription(description string) bool {
	return utf8.RuneCountInString(description) <= DraftDescriptionMaxLen
}

// CreateTaskInput 任务创建请求体
type CreateTaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	AssigneeIDs []string     `json:"assigneeIds,omitempty"`
}

// ToCreateInput 草稿转为任务创建请求
func (d TaskDraft) ToCreateInput() CreateTaskInput {
	return CreateTaskInput{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Status:      d.Status,
		Priority:    d.Priority,
	}
}

// Task 后端持久化的任务
type Task struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status"`
	Priority    TaskPriority   `json:"priority"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	ProjectID   string         `json:"projectId"`
	CreatorID   string         `json:"creatorId"`
	Assignees   []TaskAssignee `json:"assignees,omitempty"`
	Comments    []TaskComment  `json:"comments,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TaskAssignee 任务负责人
type TaskAssignee struct {
	ID   string `json:"id"`
	User User   `json:"user"`
}

// TaskComment 任务评论
type TaskComment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerationResult 一次生成调用经过校验的结果，长度在 [1,30]
type GenerationResult struct {
	Tasks []TaskDraft `json:"tasks"`
}
