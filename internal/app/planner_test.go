package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/ai"
	"taskdeck/internal/domain"
	"taskdeck/internal/repo"
	"taskdeck/internal/store"
)

type fakeAI struct {
	during     func()
	generated  []domain.TaskInput
	completed  domain.TaskInput
	score      float64
	resources  []ai.Resource
	err        error
	lastPrompt ai.PrioritizeRequest
	lastRes    ai.ResourceRequest
}

func (f *fakeAI) hook() {
	if f.during != nil {
		f.during()
	}
}

func (f *fakeAI) GenerateTasks(_ context.Context, _ string, _ ai.GenerateRequest) ([]domain.TaskInput, error) {
	f.hook()
	return f.generated, f.err
}

func (f *fakeAI) CompleteTask(_ context.Context, _ string, req ai.AnalysisRequest) (domain.TaskInput, error) {
	f.hook()
	out := f.completed
	out.Title = req.Title
	return out, f.err
}

func (f *fakeAI) PrioritizeTasks(_ context.Context, _ string, req ai.PrioritizeRequest) ([]domain.Task, error) {
	f.hook()
	f.lastPrompt = req
	out := make([]domain.Task, len(req.Tasks))
	for i, t := range req.Tasks {
		out[i] = t.Clone()
		out[i].Pinned = false
		s := f.score
		out[i].Urgency = &s
		out[i].Importance = &s
	}
	return out, f.err
}

func (f *fakeAI) FindResources(_ context.Context, _ string, req ai.ResourceRequest) ([]ai.Resource, error) {
	f.hook()
	f.lastRes = req
	return f.resources, f.err
}

func num(v float64) *float64 { return &v }

func newPlanner(t *testing.T, fake *fakeAI) (*Planner, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), repo.NewMemoryBlobs())
	require.NoError(t, err)
	st.SetAPIKey(context.Background(), "key")
	p := NewPlanner(st, fake, nil)
	p.Now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }
	return p, st
}

func TestGenerateTasksAddsToActiveProject(t *testing.T) {
	fake := &fakeAI{generated: []domain.TaskInput{
		{Title: "A", Urgency: num(9), Importance: num(9)},
		{Title: "B", Urgency: num(1), Importance: num(8)},
	}}
	p, st := newPlanner(t, fake)
	tasks, err := p.GenerateTasks(context.Background(), "ship it")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.ColorDo, tasks[0].Color)
	assert.Len(t, st.Active().Tasks, 2)
}

func TestMissingKeyFailsFast(t *testing.T) {
	fake := &fakeAI{during: func() { t.Fatal("AI must not be called") }}
	p, st := newPlanner(t, fake)
	st.SetAPIKey(context.Background(), "")
	_, err := p.GenerateTasks(context.Background(), "goal")
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
	_, err = p.FindResources(context.Background(), "")
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
}

func TestStaleResultIsDropped(t *testing.T) {
	fake := &fakeAI{generated: []domain.TaskInput{{Title: "late"}}}
	p, st := newPlanner(t, fake)
	first := st.ActiveProjectID()
	fake.during = func() {
		_, err := st.CreateProject(context.Background(), "Switched")
		require.NoError(t, err)
	}
	_, err := p.GenerateTasks(context.Background(), "goal")
	assert.ErrorIs(t, err, ErrStale)
	for _, proj := range st.Projects() {
		assert.Empty(t, proj.Tasks, proj.ID)
	}
	assert.NotEqual(t, first, st.ActiveProjectID())
}

func TestCancelledCallIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := &fakeAI{generated: []domain.TaskInput{{Title: "late"}}, during: cancel}
	p, st := newPlanner(t, fake)
	_, err := p.GenerateTasks(ctx, "goal")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, st.Active().Tasks)
}

func TestPrioritizePreservesPinned(t *testing.T) {
	fake := &fakeAI{score: 9}
	p, st := newPlanner(t, fake)
	ctx := context.Background()
	a, err := st.AddTask(ctx, domain.TaskInput{Title: "a", Urgency: num(1), Importance: num(1), Deadline: "2024-03-20"})
	require.NoError(t, err)
	b, err := st.AddTask(ctx, domain.TaskInput{Title: "b"})
	require.NoError(t, err)
	pinned := true
	_, err = st.UpdateTask(ctx, a.ID, domain.TaskPatch{Pinned: &pinned})
	require.NoError(t, err)

	out, err := p.PrioritizeTasks(ctx, []string{a.ID})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Pinned)
	assert.Equal(t, domain.ColorDo, out[0].Color)
	assert.Equal(t, "2024-03-20", *out[0].Deadline)

	untouched, ok := st.Task(b.ID)
	require.True(t, ok)
	assert.Nil(t, untouched.Urgency)

	_, err = p.PrioritizeTasks(ctx, []string{"missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReevaluateOverdueOnlyTouchesLateTasks(t *testing.T) {
	fake := &fakeAI{score: 7}
	p, st := newPlanner(t, fake)
	ctx := context.Background()
	late, err := st.AddTask(ctx, domain.TaskInput{Title: "late", Deadline: "2024-03-01T00:00:00.000Z"})
	require.NoError(t, err)
	_, err = st.AddTask(ctx, domain.TaskInput{Title: "future", Deadline: "2024-04-01T00:00:00.000Z"})
	require.NoError(t, err)

	out, err := p.ReevaluateOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, late.ID, out[0].ID)
	require.Len(t, fake.lastPrompt.Tasks, 1)
}

func TestCompleteTaskOptionallyAdds(t *testing.T) {
	fake := &fakeAI{completed: domain.TaskInput{Urgency: num(6), Importance: num(3)}}
	p, st := newPlanner(t, fake)
	in, added, err := p.CompleteTask(context.Background(), domain.TaskInput{Title: "draft"}, false)
	require.NoError(t, err)
	assert.Nil(t, added)
	assert.Equal(t, "draft", in.Title)
	assert.Empty(t, st.Active().Tasks)

	_, added, err = p.CompleteTask(context.Background(), domain.TaskInput{Title: "draft"}, true)
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.Equal(t, domain.ColorDelegate, added.Color)
}

func TestFindResourcesForTask(t *testing.T) {
	fake := &fakeAI{resources: []ai.Resource{{Title: "r", Link: "https://example.com"}}}
	p, st := newPlanner(t, fake)
	task, err := st.AddTask(context.Background(), domain.TaskInput{Title: "deploy", Description: "to prod"})
	require.NoError(t, err)

	res, err := p.FindResources(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Len(t, res, 1)
	require.NotNil(t, fake.lastRes.Task)
	assert.Equal(t, "deploy", fake.lastRes.Task.Title)

	_, err = p.FindResources(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAIErrorsPassThrough(t *testing.T) {
	fake := &fakeAI{err: ai.ErrMalformedResponse}
	p, _ := newPlanner(t, fake)
	_, err := p.GenerateTasks(context.Background(), "g")
	assert.True(t, errors.Is(err, ai.ErrMalformedResponse))
}

func TestProgress(t *testing.T) {
	p, st := newPlanner(t, &fakeAI{})
	ctx := context.Background()
	a, err := st.AddTask(ctx, domain.TaskInput{Title: "a"})
	require.NoError(t, err)
	_, err = st.AddTask(ctx, domain.TaskInput{Title: "b"})
	require.NoError(t, err)
	done := true
	_, err = st.UpdateTask(ctx, a.ID, domain.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{Completed: 1, Total: 2, Percent: 50}, p.Progress())
}
