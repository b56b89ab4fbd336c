package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/domain"
)

// scriptedGenerator answers prompts by matching on the user text.
type scriptedGenerator struct {
	mu       sync.Mutex
	calls    []Prompt
	respond  func(p Prompt) (string, error)
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (g *scriptedGenerator) Generate(ctx context.Context, _ string, p Prompt) (string, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	g.mu.Lock()
	g.calls = append(g.calls, p)
	g.mu.Unlock()
	return g.respond(p)
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

const goodAnalysis = `{"urgency": 8, "importance": 6, "startDate": "2024-03-01T00:00:00.000Z", "deadline": "2024-03-04T00:00:00.000Z"}`

func fixedNow() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

func TestAnalyzeTaskParsesFencedJSON(t *testing.T) {
	gen := &scriptedGenerator{respond: func(Prompt) (string, error) {
		return "```json\n" + goodAnalysis + "\n```", nil
	}}
	svc := NewService(gen, Options{Now: fixedNow})
	a, err := svc.AnalyzeTask(context.Background(), "k", AnalysisRequest{Title: "Write", ProjectDeadline: "2024-04-01"})
	require.NoError(t, err)
	assert.Equal(t, 8.0, a.Urgency)
	assert.Equal(t, 6.0, a.Importance)
	assert.Equal(t, "2024-03-04T00:00:00.000Z", *a.Deadline)
	assert.Contains(t, gen.calls[0].User, "Write")
	assert.Contains(t, gen.calls[0].User, "2024-03-01T00:00:00Z")
}

func TestAnalyzeTaskErrors(t *testing.T) {
	cases := map[string]struct {
		reply string
		want  error
	}{
		"no json":         {"sorry, I cannot", ErrMalformedResponse},
		"broken json":     {"{urgency: }", ErrMalformedResponse},
		"missing score":   {`{"importance": 3, "startDate": null, "deadline": null}`, ErrInvalidResponse},
		"score too large": {`{"urgency": 11, "importance": 3, "startDate": null, "deadline": null}`, ErrInvalidResponse},
		"score too small": {`{"urgency": 0, "importance": 3, "startDate": null, "deadline": null}`, ErrInvalidResponse},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{respond: func(Prompt) (string, error) { return tc.reply, nil }}
			_, err := NewService(gen, Options{}).AnalyzeTask(context.Background(), "k", AnalysisRequest{Title: "x"})
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestAnalysisCoercesBadDates(t *testing.T) {
	gen := &scriptedGenerator{respond: func(Prompt) (string, error) {
		return `{"urgency": 3, "importance": 3, "startDate": "next week", "deadline": null}`, nil
	}}
	a, err := NewService(gen, Options{}).AnalyzeTask(context.Background(), "k", AnalysisRequest{Title: "x"})
	require.NoError(t, err)
	assert.Nil(t, a.StartDate)
	assert.Nil(t, a.Deadline)
}

func TestMissingCredentialBeforeAnyCall(t *testing.T) {
	gen := &scriptedGenerator{respond: func(Prompt) (string, error) { return goodAnalysis, nil }}
	svc := NewService(gen, Options{})
	ctx := context.Background()

	_, err := svc.AnalyzeTask(ctx, "", AnalysisRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = svc.GenerateTasks(ctx, "", GenerateRequest{Goal: "ship"})
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = svc.PrioritizeTasks(ctx, "", PrioritizeRequest{Tasks: []domain.Task{{Title: "a"}}})
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = svc.FindResources(ctx, "", ResourceRequest{})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, gen.callCount())
}

func TestGenerateTasksSkipsFailedAnalyses(t *testing.T) {
	gen := &scriptedGenerator{respond: func(p Prompt) (string, error) {
		switch {
		case strings.Contains(p.User, "Break a goal"):
			return `{"tasks":[{"title":"One","description":"first"},{"title":"Two"},{"title":"Three"}]}`, nil
		case strings.Contains(p.User, "Task title: Two"):
			return "not json", nil
		default:
			return goodAnalysis, nil
		}
	}}
	svc := NewService(gen, Options{Now: fixedNow})
	inputs, err := svc.GenerateTasks(context.Background(), "k", GenerateRequest{Goal: "Launch", ProjectDescription: "site"})
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "One", inputs[0].Title)
	assert.Equal(t, "first", inputs[0].Description)
	assert.Equal(t, "Three", inputs[1].Title)
	assert.Equal(t, 8.0, *inputs[0].Urgency)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", inputs[0].StartDate)
	assert.Equal(t, 4, gen.callCount())
}

func TestGenerateTasksRejectsBadBrainstorm(t *testing.T) {
	gen := &scriptedGenerator{respond: func(Prompt) (string, error) { return `{"tasks":[{"title":""}]}`, nil }}
	_, err := NewService(gen, Options{}).GenerateTasks(context.Background(), "k", GenerateRequest{Goal: "x"})
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = NewService(gen, Options{}).GenerateTasks(context.Background(), "k", GenerateRequest{Goal: " "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPrioritizeKeepsFailedTasksUnchanged(t *testing.T) {
	gen := &scriptedGenerator{respond: func(p Prompt) (string, error) {
		if strings.Contains(p.User, "Task title: Broken") {
			return "", errors.New("boom")
		}
		return goodAnalysis, nil
	}}
	u := 2.0
	tasks := []domain.Task{
		{ID: "a", Title: "Fine", Pinned: true},
		{ID: "b", Title: "Broken", Urgency: &u},
	}
	out, err := NewService(gen, Options{}).PrioritizeTasks(context.Background(), "k", PrioritizeRequest{Tasks: tasks})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.True(t, out[0].Pinned)
	assert.Equal(t, 8.0, *out[0].Urgency)
	assert.Equal(t, tasks[1], out[1])
}

func TestPoolRespectsConcurrency(t *testing.T) {
	for _, limit := range []int{1, 3} {
		gen := &scriptedGenerator{delay: 10 * time.Millisecond, respond: func(Prompt) (string, error) { return goodAnalysis, nil }}
		svc := NewService(gen, Options{Concurrency: limit})
		tasks := make([]domain.Task, 8)
		for i := range tasks {
			tasks[i] = domain.Task{ID: string(rune('a' + i)), Title: "t"}
		}
		out, err := svc.PrioritizeTasks(context.Background(), "k", PrioritizeRequest{Tasks: tasks})
		require.NoError(t, err)
		assert.Len(t, out, 8)
		assert.LessOrEqual(t, int(gen.peak.Load()), limit)
		for i := range tasks {
			assert.Equal(t, tasks[i].ID, out[i].ID)
		}
	}
}

func TestCancelledBatchReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &scriptedGenerator{respond: func(Prompt) (string, error) { return goodAnalysis, nil }}
	_, err := NewService(gen, Options{}).PrioritizeTasks(ctx, "k", PrioritizeRequest{Tasks: []domain.Task{{Title: "a"}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, gen.callCount())
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	gen := &scriptedGenerator{respond: func(Prompt) (string, error) { return "", ErrUpstream }}
	svc := NewService(gen, Options{MaxFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.AnalyzeTask(ctx, "k", AnalysisRequest{Title: "x"})
		assert.ErrorIs(t, err, ErrUpstream)
	}
	_, err := svc.AnalyzeTask(ctx, "k", AnalysisRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, gen.callCount())
}

func TestFindResourcesValidatesLinks(t *testing.T) {
	gen := &scriptedGenerator{respond: func(p Prompt) (string, error) {
		if strings.Contains(p.User, "Deploy") {
			return `{"resources":[{"title":"a","description":"b","link":"not a url"}]}`, nil
		}
		return `{"resources":[{"title":"Go docs","description":"reference","link":"https://go.dev/doc"}]}`, nil
	}}
	svc := NewService(gen, Options{})
	res, err := svc.FindResources(context.Background(), "k", ResourceRequest{ProjectDescription: "api"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "https://go.dev/doc", res[0].Link)

	_, err = svc.FindResources(context.Background(), "k", ResourceRequest{Task: &Idea{Title: "Deploy"}})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCompleteTaskDefaultsTitle(t *testing.T) {
	gen := &scriptedGenerator{respond: func(Prompt) (string, error) { return goodAnalysis, nil }}
	in, err := NewService(gen, Options{}).CompleteTask(context.Background(), "k", AnalysisRequest{Description: "something"})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Task", in.Title)
	assert.Equal(t, "something", in.Description)
	assert.Equal(t, "2024-03-04T00:00:00.000Z", in.Deadline)
}
