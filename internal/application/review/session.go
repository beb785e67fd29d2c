// Package review 实现 AI 任务草稿的审阅与提交流程：
// 输入提示词 -> 生成草稿 -> 逐条编辑/删除 -> 按顺序逐条创建。
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"abricot-ai-api/internal/domain/entity"
	"abricot-ai-api/pkg/logger"
	"abricot-ai-api/pkg/metrics"
)

// MinPromptLen 允许生成的最短提示词（去除首尾空白后按字符计）
const MinPromptLen = 6

// State 会话状态
type State string

const (
	StateCompose    State = "COMPOSE"
	StateReview     State = "REVIEW"
	StateCommitting State = "COMMITTING"
	StateClosed     State = "CLOSED"
)

// Generator 调用生成代理
type Generator interface {
	Generate(ctx context.Context, prompt, projectTitle string) ([]entity.TaskDraft, error)
}

// TaskCreator 在项目下创建一条任务
type TaskCreator interface {
	CreateTask(ctx context.Context, projectID string, in entity.CreateTaskInput) (*entity.Task, error)
}

// ResponseError 对端返回了错误响应；PublicMessage 为可直接展示的文案（可能为空）
type ResponseError interface {
	error
	PublicMessage() string
}

// CommitError 批量创建中途失败；已创建的任务不会回滚
type CommitError struct {
	Committed int
	Remaining int
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit stopped after %d task(s), %d remaining: %v", e.Committed, e.Remaining, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Config 会话依赖
type Config struct {
	ProjectID    string
	ProjectTitle string
	Generator    Generator
	Creator      TaskCreator
	// OnCommitted 全部创建成功后回调（刷新任务列表）
	OnCommitted func(ctx context.Context)
	Messages    Messages
}

// Snapshot 会话可观察状态的拷贝
type Snapshot struct {
	State      State
	Prompt     string
	Drafts     []entity.TaskDraft
	EditIndex  int
	Error      string
	Generating bool
	Committing bool
}

// Session 一次审阅会话，方法可并发调用；网络调用期间不持锁
type Session struct {
	mu sync.Mutex

	projectID    string
	projectTitle string
	generator    Generator
	creator      TaskCreator
	onCommitted  func(ctx context.Context)
	messages     Messages

	state      State
	prompt     string
	drafts     []entity.TaskDraft
	editIndex  int
	errMsg     string
	generating bool
	committing bool
	// epoch 每次 Close/Reset 递增，用于丢弃关闭前发出的请求结果
	epoch uint64
}

// NewSession 创建会话，初始状态 COMPOSE
func NewSession(cfg Config) *Session {
	return &Session{
		projectID:    cfg.ProjectID,
		projectTitle: cfg.ProjectTitle,
		generator:    cfg.Generator,
		creator:      cfg.Creator,
		onCommitted:  cfg.OnCommitted,
		messages:     cfg.Messages.withDefaults(),
		state:        StateCompose,
		editIndex:    -1,
	}
}

// SetPrompt 更新提示词
func (s *Session) SetPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.prompt = text
}

// Prompt 当前提示词
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// CanGenerate 提示词足够长且没有进行中的请求
func (s *Session) CanGenerate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canGenerateLocked()
}

func (s *Session) canGenerateLocked() bool {
	return s.state != StateClosed &&
		!s.generating && !s.committing &&
		utf8.RuneCountInString(strings.TrimSpace(s.prompt)) >= MinPromptLen
}

// Generate 生成（或重新生成）草稿。成功时整体替换草稿列表并进入 REVIEW；
// 失败时停留在当前状态，保留提示词与已有草稿。条件不满足时不发起请求，返回 false。
func (s *Session) Generate(ctx context.Context) bool {
	s.mu.Lock()
	if !s.canGenerateLocked() || s.generator == nil {
		s.mu.Unlock()
		return false
	}
	s.generating = true
	s.errMsg = ""
	epoch := s.epoch
	prompt := s.prompt
	s.mu.Unlock()

	drafts, err := s.generator.Generate(ctx, prompt, s.projectTitle)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		// 会话已关闭，结果作废
		return false
	}
	s.generating = false

	if err != nil {
		s.errMsg = s.generateFailure(err)
		logger.Warn(ctx, "task draft generation failed", "error", err.Error())
		return false
	}

	s.drafts = append([]entity.TaskDraft(nil), drafts...)
	s.editIndex = -1
	s.state = StateReview
	return true
}

func (s *Session) generateFailure(err error) string {
	var respErr ResponseError
	if errors.As(err, &respErr) {
		if msg := strings.TrimSpace(respErr.PublicMessage()); msg != "" {
			return msg
		}
		return s.messages.GenerateFailed
	}
	return s.messages.GenerateUnreachable
}

// StartEdit 进入第 i 条草稿的编辑模式
func (s *Session) StartEdit(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editableLocked() || i < 0 || i >= len(s.drafts) {
		return false
	}
	s.editIndex = i
	return true
}

// CancelEdit 退出编辑模式
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editIndex = -1
}

// EditIndex 正在编辑的下标，-1 表示无
func (s *Session) EditIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editIndex
}

// EditDraft 修改第 i 条草稿的标题与描述；标题不足 3 个字符等非法输入直接忽略
func (s *Session) EditDraft(i int, title, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editableLocked() || i < 0 || i >= len(s.drafts) {
		return false
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if !entity.ValidTitle(title) || !entity.ValidDescription(description) {
		return false
	}

	s.drafts[i].Title = title
	s.drafts[i].Description = description
	s.editIndex = -1
	return true
}

// RemoveDraft 删除第 i 条草稿，保持其余草稿的相对顺序
func (s *Session) RemoveDraft(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editableLocked() || i < 0 || i >= len(s.drafts) {
		return false
	}

	s.drafts = append(s.drafts[:i:i], s.drafts[i+1:]...)
	switch {
	case s.editIndex == i:
		s.editIndex = -1
	case s.editIndex > i:
		s.editIndex--
	}
	return true
}

func (s *Session) editableLocked() bool {
	return s.state == StateReview && !s.committing
}

// CanCommit 有草稿且没有进行中的请求
func (s *Session) CanCommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canCommitLocked()
}

func (s *Session) canCommitLocked() bool {
	return s.state == StateReview && len(s.drafts) > 0 && !s.generating && !s.committing
}

// CommitAll 按列表顺序逐条创建任务。任一条失败即停止，回到 REVIEW，
// 未提交的草稿保留以便重试，已创建的任务不回滚。全部成功后回调 OnCommitted 并关闭会话。
// 条件不满足时为空操作，返回 nil。
func (s *Session) CommitAll(ctx context.Context) error {
	s.mu.Lock()
	if !s.canCommitLocked() || s.creator == nil {
		s.mu.Unlock()
		return nil
	}
	s.committing = true
	s.state = StateCommitting
	s.errMsg = ""
	s.editIndex = -1
	epoch := s.epoch
	pending := append([]entity.TaskDraft(nil), s.drafts...)
	s.mu.Unlock()

	committed := 0
	var commitErr error
	for _, d := range pending {
		if _, err := s.creator.CreateTask(ctx, s.projectID, d.ToCreateInput()); err != nil {
			metrics.CommitTaskTotal.WithLabelValues("error").Inc()
			commitErr = err
			break
		}
		metrics.CommitTaskTotal.WithLabelValues("success").Inc()
		committed++

		s.mu.Lock()
		if epoch == s.epoch {
			s.drafts = s.drafts[1:]
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		if commitErr != nil {
			return &CommitError{Committed: committed, Remaining: len(pending) - committed, Err: commitErr}
		}
		return nil
	}

	if commitErr != nil {
		remaining := len(pending) - committed
		base := ""
		var respErr ResponseError
		if errors.As(commitErr, &respErr) {
			base = strings.TrimSpace(respErr.PublicMessage())
		}
		s.errMsg = s.messages.commitFailure(base, committed, remaining)
		s.committing = false
		s.state = StateReview
		s.mu.Unlock()

		logger.Warn(ctx, "task commit stopped",
			"project_id", s.projectID,
			"committed", committed,
			"remaining", remaining,
			"error", commitErr.Error(),
		)
		return &CommitError{Committed: committed, Remaining: remaining, Err: commitErr}
	}
	s.committing = false
	s.mu.Unlock()

	logger.Info(ctx, "task drafts committed", "project_id", s.projectID, "count", committed)
	if s.onCommitted != nil {
		s.onCommitted(ctx)
	}
	s.Close()
	return nil
}

// Close 丢弃全部内存状态；进行中的请求结果将被忽略
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.state = StateClosed
}

// Reset 重新打开会话，回到全新的 COMPOSE 状态
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.state = StateCompose
}

func (s *Session) clearLocked() {
	s.epoch++
	s.prompt = ""
	s.drafts = nil
	s.editIndex = -1
	s.errMsg = ""
	s.generating = false
	s.committing = false
}

// State 当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Drafts 草稿列表拷贝
func (s *Session) Drafts() []entity.TaskDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.TaskDraft(nil), s.drafts...)
}

// Err 最近一次失败的用户文案
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Snapshot 返回可观察状态的拷贝
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		Prompt:     s.prompt,
		Drafts:     append([]entity.TaskDraft(nil), s.drafts...),
		EditIndex:  s.editIndex,
		Error:      s.errMsg,
		Generating: s.generating,
		Committing: s.committing,
	}
}
