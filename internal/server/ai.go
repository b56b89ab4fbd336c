package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"taskdeck/internal/ai"
	"taskdeck/internal/domain"
)

var aiErrors = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusPreconditionFailed,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
}

func (h *handlers) checkPlanner() error {
	if h.planner == nil || h.planner.AI == nil {
		return handleError(ai.ErrUnavailable)
	}
	return nil
}

func (h *handlers) registerAI(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "ai-generate-tasks",
		Method:        http.MethodPost,
		Path:          "/ai/tasks/generate",
		Summary:       "Break a goal into analysed tasks and add them",
		DefaultStatus: http.StatusCreated,
		Errors:        aiErrors,
	}, func(ctx context.Context, input *struct {
		Body GenerateRequest `json:"body"`
	}) (*taskListOutput, error) {
		if err := h.checkPlanner(); err != nil {
			return nil, err
		}
		tasks, err := h.planner.GenerateTasks(ctx, input.Body.Goal)
		if err != nil {
			return nil, handleError(err)
		}
		return &taskListOutput{Body: TaskListResponse{Items: nonNilTasks(tasks)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ai-complete-task",
		Method:      http.MethodPost,
		Path:        "/ai/tasks/complete",
		Summary:     "Fill in scores and dates for a partial task",
		Errors:      aiErrors,
	}, func(ctx context.Context, input *struct {
		Body CompleteRequest `json:"body"`
	}) (*struct {
		Body CompleteResponse `json:"body"`
	}, error) {
		if err := h.checkPlanner(); err != nil {
			return nil, err
		}
		partial := domain.TaskInput{Title: input.Body.Title, Description: input.Body.Description}
		suggestion, added, err := h.planner.CompleteTask(ctx, partial, input.Body.Add)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CompleteResponse `json:"body"`
		}{Body: CompleteResponse{Suggestion: suggestion, Task: added}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ai-prioritize-tasks",
		Method:      http.MethodPost,
		Path:        "/ai/tasks/prioritize",
		Summary:     "Re-score tasks; all tasks when taskIds is empty",
		Errors:      aiErrors,
	}, func(ctx context.Context, input *struct {
		Body PrioritizeRequest `json:"body" required:"false"`
	}) (*taskListOutput, error) {
		if err := h.checkPlanner(); err != nil {
			return nil, err
		}
		tasks, err := h.planner.PrioritizeTasks(ctx, input.Body.TaskIDs)
		if err != nil {
			return nil, handleError(err)
		}
		return &taskListOutput{Body: TaskListResponse{Items: nonNilTasks(tasks)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ai-reevaluate-overdue",
		Method:      http.MethodPost,
		Path:        "/ai/tasks/reevaluate-overdue",
		Summary:     "Re-score incomplete tasks whose deadline has passed",
		Errors:      aiErrors,
	}, func(ctx context.Context, _ *struct{}) (*taskListOutput, error) {
		if err := h.checkPlanner(); err != nil {
			return nil, err
		}
		tasks, err := h.planner.ReevaluateOverdue(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &taskListOutput{Body: TaskListResponse{Items: nonNilTasks(tasks)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ai-find-resources",
		Method:      http.MethodPost,
		Path:        "/ai/resources",
		Summary:     "Suggest references for the project or one task",
		Errors:      aiErrors,
	}, func(ctx context.Context, input *struct {
		Body ResourcesRequest `json:"body" required:"false"`
	}) (*struct {
		Body ResourceListResponse `json:"body"`
	}, error) {
		if err := h.checkPlanner(); err != nil {
			return nil, err
		}
		res, err := h.planner.FindResources(ctx, input.Body.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		if res == nil {
			res = []ai.Resource{}
		}
		return &struct {
			Body ResourceListResponse `json:"body"`
		}{Body: ResourceListResponse{Items: res}}, nil
	})
}
