package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abricot-ai-api/internal/application/review"
	"abricot-ai-api/internal/domain/entity"
)

type scriptedGenerator struct {
	drafts []entity.TaskDraft
	calls  []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt, _ string) ([]entity.TaskDraft, error) {
	g.calls = append(g.calls, prompt)
	return g.drafts, nil
}

type recordingCreator struct {
	failAt  int
	created []entity.CreateTaskInput
}

func (c *recordingCreator) CreateTask(_ context.Context, projectID string, in entity.CreateTaskInput) (*entity.Task, error) {
	if c.failAt > 0 && len(c.created)+1 == c.failAt {
		return nil, errors.New("boom")
	}
	c.created = append(c.created, in)
	return &entity.Task{ID: "t", ProjectID: projectID, Title: in.Title}, nil
}

func draft(title string) entity.TaskDraft {
	return entity.TaskDraft{Title: title, Status: entity.TaskStatusTodo, Priority: entity.TaskPriorityMedium}
}

func runREPL(t *testing.T, gen review.Generator, creator review.TaskCreator, script string) (string, error) {
	t.Helper()
	sess := review.NewSession(review.Config{ProjectID: "p1", ProjectTitle: "RH", Generator: gen, Creator: creator})
	var out bytes.Buffer
	err := newReviewREPL(sess, strings.NewReader(script), &out).run(context.Background(), "")
	return out.String(), err
}

func TestReviewREPLEditRemoveCommit(t *testing.T) {
	gen := &scriptedGenerator{drafts: []entity.TaskDraft{draft("First task"), draft("Second task"), draft("Third task")}}
	creator := &recordingCreator{}

	out, err := runREPL(t, gen, creator, strings.Join([]string{
		"Add onboarding tasks",
		"edit 1",
		"Renamed task",
		"",
		"rm 2",
		"commit",
	}, "\n")+"\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Add onboarding tasks"}, gen.calls)
	require.Len(t, creator.created, 2)
	assert.Equal(t, "Renamed task", creator.created[0].Title)
	assert.Equal(t, "Third task", creator.created[1].Title)
	assert.Contains(t, out, "2 task(s) created.")
}

func TestReviewREPLShortPrompt(t *testing.T) {
	gen := &scriptedGenerator{}
	out, err := runREPL(t, gen, &recordingCreator{}, "hello\nquit\n")
	require.NoError(t, err)
	assert.Empty(t, gen.calls)
	assert.Contains(t, out, "at least 6 characters")
}

func TestReviewREPLCommitFailureKeepsRemaining(t *testing.T) {
	gen := &scriptedGenerator{drafts: []entity.TaskDraft{draft("First task"), draft("Second task")}}
	creator := &recordingCreator{failAt: 2}

	out, err := runREPL(t, gen, creator, "Plan the release\ncommit\nlist\nquit\n")
	require.NoError(t, err)

	require.Len(t, creator.created, 1)
	assert.Contains(t, out, "Erreur lors de la création des tâches : 1 tâche(s) déjà créée(s), 1 restante(s) à créer")
	assert.Contains(t, out, " 1. [TODO/MEDIUM] Second task")
	assert.Contains(t, out, "Drafts discarded.")
}

func TestTokenStore(t *testing.T) {
	s := &tokenStore{path: t.TempDir() + "/abricot/token"}

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save("abc.def"))
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	tok, _ = s.Load()
	assert.Empty(t, tok)
}
