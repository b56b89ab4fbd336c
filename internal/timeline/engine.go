package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskdeck/internal/domain"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUnscheduled  = errors.New("task needs a start date and a deadline")
	// ErrNotMeasured rejects gestures while the day width is still zero.
	ErrNotMeasured = errors.New("timeline day width is not measured yet")
)

// TaskUpdater is the slice of the task store the engine commits into.
type TaskUpdater interface {
	Task(id string) (domain.Task, bool)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
}

// Engine turns finished drag and resize gestures into task updates. Each
// gesture results in exactly one UpdateTask call.
type Engine struct {
	Tasks   TaskUpdater
	Metrics Metrics
	Now     func() time.Time
}

func New(tasks TaskUpdater, m Metrics) Engine {
	return Engine{Tasks: tasks, Metrics: m, Now: time.Now}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Layout computes the timeline for w over tasks.
func (e Engine) Layout(tasks []domain.Task, w Window) Layout {
	return Compute(tasks, w, e.Metrics, e.now())
}

func (e Engine) scheduledTask(id string) (domain.Task, time.Time, time.Time, error) {
	if e.Metrics.DayWidth <= 0 {
		return domain.Task{}, time.Time{}, time.Time{}, ErrNotMeasured
	}
	t, ok := e.Tasks.Task(id)
	if !ok {
		return domain.Task{}, time.Time{}, time.Time{}, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	start, okStart := domain.DateOf(t.StartDate)
	end, okEnd := domain.DateOf(t.Deadline)
	if !okStart || !okEnd {
		return domain.Task{}, time.Time{}, time.Time{}, fmt.Errorf("task %s: %w", id, ErrUnscheduled)
	}
	return t, start, end, nil
}

// DragStop moves a task so it starts at x, keeping its duration.
func (e Engine) DragStop(ctx context.Context, id string, w Window, x float64) (domain.Task, error) {
	_, start, end, err := e.scheduledTask(id)
	if err != nil {
		return domain.Task{}, err
	}
	newStart := DateFromPixel(x, w, e.Metrics)
	return e.commit(ctx, id, newStart, newStart.Add(end.Sub(start)))
}

// ResizeStop sets a task to start at x and last as long as width pixels.
func (e Engine) ResizeStop(ctx context.Context, id string, w Window, x, width float64) (domain.Task, error) {
	if _, _, _, err := e.scheduledTask(id); err != nil {
		return domain.Task{}, err
	}
	newStart := DateFromPixel(x, w, e.Metrics)
	return e.commit(ctx, id, newStart, newStart.Add(PixelsToDuration(width, e.Metrics)))
}

func (e Engine) commit(ctx context.Context, id string, start, end time.Time) (domain.Task, error) {
	startISO, endISO := domain.FormatTime(start), domain.FormatTime(end)
	return e.Tasks.UpdateTask(ctx, id, domain.TaskPatch{StartDate: &startISO, Deadline: &endISO})
}
