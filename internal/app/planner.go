package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskdeck/internal/ai"
	"taskdeck/internal/domain"
	"taskdeck/internal/store"
	"taskdeck/internal/timeline"
)

// ErrStale reports an AI result that arrived after the active project
// changed. The result is discarded.
var ErrStale = errors.New("active project changed while the AI call was running")

// AIService is the generative backend the planner drives.
type AIService interface {
	GenerateTasks(ctx context.Context, apiKey string, req ai.GenerateRequest) ([]domain.TaskInput, error)
	CompleteTask(ctx context.Context, apiKey string, req ai.AnalysisRequest) (domain.TaskInput, error)
	PrioritizeTasks(ctx context.Context, apiKey string, req ai.PrioritizeRequest) ([]domain.Task, error)
	FindResources(ctx context.Context, apiKey string, req ai.ResourceRequest) ([]ai.Resource, error)
}

// Planner runs the AI-assisted flows against the active project.
type Planner struct {
	Store  *store.Store
	AI     AIService
	Logger *slog.Logger
	Now    func() time.Time
}

func NewPlanner(st *store.Store, svc AIService, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{Store: st, AI: svc, Logger: logger, Now: time.Now}
}

func (p *Planner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// call captures the active project and credential before an AI request.
type call struct {
	apiKey    string
	projectID string
	project   domain.Project
}

func (p *Planner) begin() (call, error) {
	key := p.Store.APIKey()
	if key == "" {
		return call{}, ai.ErrMissingCredential
	}
	view := p.Store.Active()
	return call{apiKey: key, projectID: view.Project.ID, project: view.Project}, nil
}

// finish decides whether a result may still be applied.
func (p *Planner) finish(ctx context.Context, c call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Store.ActiveProjectID() != c.projectID {
		p.Logger.Info("dropping stale AI result", "project_id", c.projectID)
		return ErrStale
	}
	return nil
}

func deadlineOf(p domain.Project) string {
	if p.Deadline == nil {
		return ""
	}
	return *p.Deadline
}

// GenerateTasks turns a goal into analyzed tasks and adds them to the active
// project.
func (p *Planner) GenerateTasks(ctx context.Context, goal string) ([]domain.Task, error) {
	c, err := p.begin()
	if err != nil {
		return nil, err
	}
	inputs, err := p.AI.GenerateTasks(ctx, c.apiKey, ai.GenerateRequest{
		ProjectDescription: c.project.Description,
		ProjectDeadline:    deadlineOf(c.project),
		Goal:               goal,
	})
	if err != nil {
		return nil, err
	}
	if err := p.finish(ctx, c); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return []domain.Task{}, nil
	}
	return p.Store.AddTasks(ctx, inputs)
}

// CompleteTask asks the AI to score and schedule a partially filled task.
// The suggestion is added to the active project only when add is set.
func (p *Planner) CompleteTask(ctx context.Context, partial domain.TaskInput, add bool) (domain.TaskInput, *domain.Task, error) {
	c, err := p.begin()
	if err != nil {
		return domain.TaskInput{}, nil, err
	}
	in, err := p.AI.CompleteTask(ctx, c.apiKey, ai.AnalysisRequest{
		ProjectDescription: c.project.Description,
		ProjectDeadline:    deadlineOf(c.project),
		Title:              partial.Title,
		Description:        partial.Description,
	})
	if err != nil {
		return domain.TaskInput{}, nil, err
	}
	if err := p.finish(ctx, c); err != nil {
		return domain.TaskInput{}, nil, err
	}
	if !add {
		return in, nil, nil
	}
	t, err := p.Store.AddTask(ctx, in)
	if err != nil {
		return in, nil, err
	}
	return in, &t, nil
}

// PrioritizeTasks re-scores the given tasks of the active project, or all of
// them when ids is empty. Pinning is preserved.
func (p *Planner) PrioritizeTasks(ctx context.Context, ids []string) ([]domain.Task, error) {
	c, err := p.begin()
	if err != nil {
		return nil, err
	}
	tasks := c.project.Tasks
	if len(ids) > 0 {
		tasks = make([]domain.Task, 0, len(ids))
		for _, id := range ids {
			t, ok := p.Store.Task(id)
			if !ok {
				return nil, fmt.Errorf("task %s: %w", id, store.ErrNotFound)
			}
			tasks = append(tasks, t)
		}
	}
	return p.reprioritize(ctx, c, tasks)
}

// ReevaluateOverdue re-scores every incomplete task whose deadline passed.
func (p *Planner) ReevaluateOverdue(ctx context.Context) ([]domain.Task, error) {
	c, err := p.begin()
	if err != nil {
		return nil, err
	}
	return p.reprioritize(ctx, c, timeline.Overdue(c.project.Tasks, p.now()))
}

func (p *Planner) reprioritize(ctx context.Context, c call, tasks []domain.Task) ([]domain.Task, error) {
	if len(tasks) == 0 {
		return []domain.Task{}, nil
	}
	scored, err := p.AI.PrioritizeTasks(ctx, c.apiKey, ai.PrioritizeRequest{
		ProjectDescription: c.project.Description,
		ProjectDeadline:    deadlineOf(c.project),
		Tasks:              tasks,
	})
	if err != nil {
		return nil, err
	}
	if err := p.finish(ctx, c); err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(scored))
	for _, t := range scored {
		updated, err := p.Store.UpdateTask(ctx, t.ID, scorePatch(t))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				p.Logger.Warn("prioritized task no longer exists", "task_id", t.ID)
				continue
			}
			return out, err
		}
		out = append(out, updated)
	}
	return out, nil
}

// scorePatch carries the AI-owned fields only, so pinning and completion
// stay as the user left them.
func scorePatch(t domain.Task) domain.TaskPatch {
	none := ""
	patch := domain.TaskPatch{Urgency: t.Urgency, Importance: t.Importance, StartDate: &none, Deadline: &none}
	if t.StartDate != nil {
		patch.StartDate = t.StartDate
	}
	if t.Deadline != nil {
		patch.Deadline = t.Deadline
	}
	return patch
}

// FindResources suggests references for the project, or for one task of it.
func (p *Planner) FindResources(ctx context.Context, taskID string) ([]ai.Resource, error) {
	c, err := p.begin()
	if err != nil {
		return nil, err
	}
	req := ai.ResourceRequest{ProjectDescription: c.project.Description}
	if taskID != "" {
		t, ok := p.Store.Task(taskID)
		if !ok {
			return nil, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
		}
		req.Task = &ai.Idea{Title: t.Title, Description: t.Description}
	}
	res, err := p.AI.FindResources(ctx, c.apiKey, req)
	if err != nil {
		return nil, err
	}
	if err := p.finish(ctx, c); err != nil {
		return nil, err
	}
	return res, nil
}

// Progress summarises completion of the active project.
func (p *Planner) Progress() domain.Progress {
	return domain.ProgressOf(p.Store.Active().Tasks)
}
