package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"taskdeck/internal/domain"
	"taskdeck/internal/store"
)

type taskOutput struct {
	Body domain.Task `json:"body"`
}

type taskListOutput struct {
	Body TaskListResponse `json:"body"`
}

func (h *handlers) registerTasks(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks of the active project",
	}, func(ctx context.Context, input *struct {
		Quadrant string `query:"quadrant" enum:"do,decide,delegate,delete"`
	}) (*taskListOutput, error) {
		tasks := nonNilTasks(h.store.Active().Tasks)
		if input.Quadrant != "" {
			filtered := []domain.Task{}
			for _, t := range tasks {
				if domain.Classify(t.Urgency, t.Importance).String() == input.Quadrant {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}
		return &taskListOutput{Body: TaskListResponse{Items: tasks}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Add a task to the active project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*taskOutput, error) {
		t, err := h.store.AddTask(ctx, input.Body.input())
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-tasks",
		Method:        http.MethodPost,
		Path:          "/tasks/batch",
		Summary:       "Add several tasks at once",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body BatchTasksRequest `json:"body"`
	}) (*taskListOutput, error) {
		inputs := make([]domain.TaskInput, len(input.Body.Tasks))
		for i, t := range input.Body.Tasks {
			inputs[i] = t.input()
		}
		tasks, err := h.store.AddTasks(ctx, inputs)
		if err != nil {
			return nil, handleError(err)
		}
		return &taskListOutput{Body: TaskListResponse{Items: tasks}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*taskOutput, error) {
		t, ok := h.store.Task(input.ID)
		if !ok {
			return nil, handleError(fmt.Errorf("task %s: %w", input.ID, store.ErrNotFound))
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body UpdateTaskRequest `json:"body"`
	}) (*taskOutput, error) {
		body := rawBodyMap(ctx)
		patch := domain.TaskPatch{
			Title:        input.Body.Title,
			Description:  input.Body.Description,
			Completed:    input.Body.Completed,
			Pinned:       input.Body.Pinned,
			Urgency:      input.Body.Urgency,
			Importance:   input.Body.Importance,
			StartDate:    dateField(body, "startDate", input.Body.StartDate),
			Deadline:     dateField(body, "deadline", input.Body.Deadline),
			LastPosition: input.Body.LastPosition,
		}
		t, err := h.store.UpdateTask(ctx, input.ID, patch)
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete a task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := h.store.DeleteTask(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-matrix",
		Method:      http.MethodGet,
		Path:        "/matrix",
		Summary:     "Incomplete tasks as Eisenhower matrix points",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MatrixResponse `json:"body"`
	}, error) {
		return &struct {
			Body MatrixResponse `json:"body"`
		}{Body: MatrixResponse{Items: matrix(h.store.Active().Tasks)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-matrix-task",
		Method:      http.MethodPost,
		Path:        "/matrix/tasks/{id}/move",
		Summary:     "Drop a task at a new urgency and importance",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body MoveRequest `json:"body"`
	}) (*taskOutput, error) {
		u := domain.MatrixScore(input.Body.Urgency)
		i := domain.MatrixScore(input.Body.Importance)
		t, err := h.store.UpdateTask(ctx, input.ID, domain.TaskPatch{Urgency: &u, Importance: &i})
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})
}

// matrix keeps task order; completed tasks are left off the chart.
func matrix(tasks []domain.Task) []MatrixPoint {
	out := make([]MatrixPoint, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		q := domain.BadgeQuadrant(t.Urgency, t.Importance)
		out = append(out, MatrixPoint{
			TaskID:   t.ID,
			Title:    t.Title,
			X:        valueOrZero(t.Urgency),
			Y:        valueOrZero(t.Importance),
			Color:    t.Color,
			Quadrant: q.String(),
			Label:    q.Label(),
		})
	}
	return out
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
