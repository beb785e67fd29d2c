package review

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abricot-ai-api/internal/domain/entity"
)

type fakeGenerator struct {
	calls   int
	prompts []string
	results [][]entity.TaskDraft
	err     error
	// hook 在返回前执行，用于模拟请求期间的并发操作
	hook func()
}

func (g *fakeGenerator) Generate(_ context.Context, prompt, _ string) ([]entity.TaskDraft, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.hook != nil {
		g.hook()
	}
	if g.err != nil {
		return nil, g.err
	}
	res := g.results[0]
	if len(g.results) > 1 {
		g.results = g.results[1:]
	}
	return res, nil
}

type fakeCreator struct {
	created []entity.CreateTaskInput
	failAt  int // 第几次调用失败（从 1 开始），0 表示不失败
	err     error
}

func (c *fakeCreator) CreateTask(_ context.Context, projectID string, in entity.CreateTaskInput) (*entity.Task, error) {
	if c.failAt > 0 && len(c.created)+1 == c.failAt {
		return nil, c.err
	}
	c.created = append(c.created, in)
	return &entity.Task{ID: fmt.Sprintf("t%d", len(c.created)), Title: in.Title, ProjectID: projectID}, nil
}

type proxyError struct{ msg string }

func (e *proxyError) Error() string         { return "proxy: " + e.msg }
func (e *proxyError) PublicMessage() string { return e.msg }

func draft(title string, p entity.TaskPriority) entity.TaskDraft {
	return entity.TaskDraft{Title: title, Status: entity.TaskStatusTodo, Priority: p}
}

var onboardingDrafts = []entity.TaskDraft{
	draft("Prepare onboarding checklist", entity.TaskPriorityMedium),
	draft("Schedule orientation call", entity.TaskPriorityLow),
	draft("Assign buddy mentor", entity.TaskPriorityMedium),
}

func newReviewSession(t *testing.T, gen Generator, creator TaskCreator) *Session {
	t.Helper()
	s := NewSession(Config{ProjectID: "p1", ProjectTitle: "RH", Generator: gen, Creator: creator})
	s.SetPrompt("Add three onboarding tasks for new hires")
	require.True(t, s.Generate(context.Background()))
	require.Equal(t, StateReview, s.State())
	return s
}

func TestGenerateGateSkipsShortPrompts(t *testing.T) {
	for _, prompt := range []string{"", "     ", "abc", "  abcde  ", "\tcinq\n"} {
		gen := &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}
		s := NewSession(Config{Generator: gen})
		s.SetPrompt(prompt)

		assert.False(t, s.CanGenerate(), prompt)
		assert.False(t, s.Generate(context.Background()), prompt)
		assert.Zero(t, gen.calls, "no call for %q", prompt)
		assert.Equal(t, StateCompose, s.State())
	}

	gen := &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}
	s := NewSession(Config{Generator: gen})
	s.SetPrompt("  éàüöçß  ")
	assert.True(t, s.CanGenerate())
}

func TestGenerateOnboardingScenario(t *testing.T) {
	gen := &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}
	s := newReviewSession(t, gen, &fakeCreator{})

	snap := s.Snapshot()
	assert.Equal(t, StateReview, snap.State)
	require.Len(t, snap.Drafts, 3)
	for _, d := range snap.Drafts {
		assert.Equal(t, "", d.Description)
	}
	assert.Equal(t, -1, snap.EditIndex)
	assert.Equal(t, []string{"Add three onboarding tasks for new hires"}, gen.prompts)
}

func TestGenerateFailureKeepsState(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"proxy message", &proxyError{msg: "Mistral API error"}, "Mistral API error"},
		{"proxy without message", &proxyError{}, DefaultMessages.GenerateFailed},
		{"network", errors.New("dial tcp: connection refused"), DefaultMessages.GenerateUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tt.err}
			s := NewSession(Config{Generator: gen})
			s.SetPrompt("Plan the release")

			assert.False(t, s.Generate(context.Background()))
			snap := s.Snapshot()
			assert.Equal(t, StateCompose, snap.State)
			assert.Equal(t, "Plan the release", snap.Prompt)
			assert.Equal(t, tt.want, snap.Error)
			assert.False(t, snap.Generating)
		})
	}
}

func TestRegenerateFailureKeepsDrafts(t *testing.T) {
	gen := &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}
	s := newReviewSession(t, gen, &fakeCreator{})

	gen.err = &proxyError{msg: "Mistral API error"}
	assert.False(t, s.Generate(context.Background()))
	assert.Equal(t, StateReview, s.State())
	assert.Len(t, s.Drafts(), 3)
	assert.Equal(t, "Mistral API error", s.Err())
}

func TestRegenerateReplacesList(t *testing.T) {
	second := []entity.TaskDraft{draft("Write release notes", entity.TaskPriorityHigh)}
	gen := &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts, second}}
	s := newReviewSession(t, gen, &fakeCreator{})
	require.True(t, s.StartEdit(1))

	before := s.Drafts()
	require.True(t, s.Generate(context.Background()))

	if diff := cmp.Diff(second, s.Drafts()); diff != "" {
		t.Errorf("drafts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, -1, s.EditIndex())
	// 之前取得的拷贝不受影响
	assert.Len(t, before, 3)
}

func TestGenerateRejectsConcurrentSubmission(t *testing.T) {
	gen := &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}
	s := NewSession(Config{Generator: gen})
	s.SetPrompt("Plan the release")

	var nested bool
	gen.hook = func() {
		assert.True(t, s.Snapshot().Generating)
		nested = s.Generate(context.Background())
	}
	require.True(t, s.Generate(context.Background()))
	assert.False(t, nested)
	assert.Equal(t, 1, gen.calls)
}

func TestCloseDiscardsInFlightResult(t *testing.T) {
	gen := &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}
	s := NewSession(Config{Generator: gen})
	s.SetPrompt("Plan the release")
	gen.hook = s.Close

	assert.False(t, s.Generate(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, StateClosed, snap.State)
	assert.Empty(t, snap.Drafts)
	assert.False(t, snap.Generating)

	s.Reset()
	assert.Equal(t, StateCompose, s.State())
	assert.Empty(t, s.Prompt())
}

func TestEditDraftRoundTrip(t *testing.T) {
	s := newReviewSession(t, &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}, &fakeCreator{})
	require.True(t, s.StartEdit(0))

	assert.True(t, s.EditDraft(0, "  Send welcome email  ", "  Include the handbook "))
	got := s.Drafts()
	assert.Equal(t, "Send welcome email", got[0].Title)
	assert.Equal(t, "Include the handbook", got[0].Description)
	assert.Equal(t, entity.TaskPriorityMedium, got[0].Priority)
	assert.Equal(t, onboardingDrafts[1:], got[1:])
	assert.Equal(t, -1, s.EditIndex())
}

func TestEditDraftRejectsShortTitle(t *testing.T) {
	s := newReviewSession(t, &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}, &fakeCreator{})
	require.True(t, s.StartEdit(2))

	for _, title := range []string{"", "  ", "ab", " ab "} {
		assert.False(t, s.EditDraft(2, title, "ignored"))
	}
	assert.False(t, s.EditDraft(7, "Valid title", ""))
	assert.Equal(t, onboardingDrafts, s.Drafts())
	assert.Equal(t, 2, s.EditIndex(), "rejected edit keeps edit mode")
}

func TestRemoveDraftPreservesOrder(t *testing.T) {
	s := newReviewSession(t, &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}, &fakeCreator{})

	require.True(t, s.RemoveDraft(1))
	want := []entity.TaskDraft{onboardingDrafts[0], onboardingDrafts[2]}
	if diff := cmp.Diff(want, s.Drafts()); diff != "" {
		t.Errorf("drafts mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, s.RemoveDraft(5))
	assert.Len(t, s.Drafts(), 2)
}

func TestRemoveDraftAdjustsEditMode(t *testing.T) {
	s := newReviewSession(t, &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}, &fakeCreator{})

	require.True(t, s.StartEdit(2))
	require.True(t, s.RemoveDraft(0))
	assert.Equal(t, 1, s.EditIndex())

	require.True(t, s.RemoveDraft(1))
	assert.Equal(t, -1, s.EditIndex())
}

func TestCommitAllEmptyIsNoop(t *testing.T) {
	creator := &fakeCreator{}
	s := newReviewSession(t, &fakeGenerator{results: [][]entity.TaskDraft{{draft("Only task", entity.TaskPriorityLow)}}}, creator)
	require.True(t, s.RemoveDraft(0))

	assert.False(t, s.CanCommit())
	assert.NoError(t, s.CommitAll(context.Background()))
	assert.Empty(t, creator.created)
	assert.Equal(t, StateReview, s.State())
}

func TestCommitAllInComposeIsNoop(t *testing.T) {
	creator := &fakeCreator{}
	s := NewSession(Config{Creator: creator})
	assert.NoError(t, s.CommitAll(context.Background()))
	assert.Empty(t, creator.created)
}

func TestCommitAllSuccess(t *testing.T) {
	creator := &fakeCreator{}
	refreshed := 0
	s := NewSession(Config{
		ProjectID:   "p1",
		Generator:   &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}},
		Creator:     creator,
		OnCommitted: func(context.Context) { refreshed++ },
	})
	s.SetPrompt("Add three onboarding tasks for new hires")
	require.True(t, s.Generate(context.Background()))

	require.NoError(t, s.CommitAll(context.Background()))

	require.Len(t, creator.created, 3)
	for i, in := range creator.created {
		assert.Equal(t, onboardingDrafts[i].Title, in.Title)
		assert.Equal(t, onboardingDrafts[i].Priority, in.Priority)
	}
	assert.Equal(t, 1, refreshed)
	snap := s.Snapshot()
	assert.Equal(t, StateClosed, snap.State)
	assert.Empty(t, snap.Drafts)
	assert.Empty(t, snap.Prompt)
}

func TestCommitAllStopsAtFirstFailure(t *testing.T) {
	creator := &fakeCreator{failAt: 2, err: errors.New("Request failed with status code 500")}
	refreshed := false
	s := NewSession(Config{
		ProjectID:   "p1",
		Generator:   &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}},
		Creator:     creator,
		OnCommitted: func(context.Context) { refreshed = true },
	})
	s.SetPrompt("Add three onboarding tasks for new hires")
	require.True(t, s.Generate(context.Background()))

	err := s.CommitAll(context.Background())

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, 1, commitErr.Committed)
	assert.Equal(t, 2, commitErr.Remaining)

	require.Len(t, creator.created, 1)
	assert.Equal(t, "Prepare onboarding checklist", creator.created[0].Title)

	snap := s.Snapshot()
	assert.Equal(t, StateReview, snap.State)
	assert.Equal(t, onboardingDrafts[1:], snap.Drafts)
	assert.False(t, snap.Committing)
	assert.Contains(t, snap.Error, DefaultMessages.CommitFailed)
	assert.Contains(t, snap.Error, "1 tâche(s) déjà créée(s), 2 restante(s)")
	assert.False(t, refreshed)

	// 重试只提交剩余草稿
	creator.failAt = 0
	require.NoError(t, s.CommitAll(context.Background()))
	require.Len(t, creator.created, 3)
	assert.Equal(t, "Assign buddy mentor", creator.created[2].Title)
	assert.True(t, refreshed)
}

func TestCommitAllUsesBackendMessage(t *testing.T) {
	creator := &fakeCreator{failAt: 1, err: &proxyError{msg: "Projet introuvable"}}
	s := newReviewSession(t, &fakeGenerator{results: [][]entity.TaskDraft{onboardingDrafts}}, creator)

	require.Error(t, s.CommitAll(context.Background()))
	assert.Equal(t, "Projet introuvable", s.Err())
	assert.Len(t, s.Drafts(), 3)
}
