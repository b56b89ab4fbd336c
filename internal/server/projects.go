package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"taskdeck/internal/domain"
)

func (h *handlers) state() StateResponse {
	view := h.store.Active()
	return StateResponse{
		Project:     view.Project,
		Tasks:       nonNilTasks(view.Tasks),
		AllProjects: view.AllProjects,
		Progress:    domain.ProgressOf(view.Tasks),
		APIKeySet:   h.store.APIKey() != "",
	}
}

func nonNilTasks(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return []domain.Task{}
	}
	return tasks
}

type stateOutput struct {
	Body StateResponse `json:"body"`
}

func (h *handlers) registerState(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/state",
		Summary:     "Active project, its tasks and all project summaries",
	}, func(ctx context.Context, _ *struct{}) (*stateOutput, error) {
		return &stateOutput{Body: h.state()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "wipe",
		Method:      http.MethodPost,
		Path:        "/wipe",
		Summary:     "Erase all projects and start over",
	}, func(ctx context.Context, _ *struct{}) (*stateOutput, error) {
		h.store.Wipe(ctx)
		return &stateOutput{Body: h.state()}, nil
	})
}

func (h *handlers) registerProjects(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ProjectListResponse `json:"body"`
	}, error) {
		view := h.store.Active()
		return &struct {
			Body ProjectListResponse `json:"body"`
		}{Body: ProjectListResponse{Items: view.AllProjects, ActiveProjectID: h.store.ActiveProjectID()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create a project and make it active",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*stateOutput, error) {
		if _, err := h.store.CreateProject(ctx, input.Body.Name); err != nil {
			return nil, handleError(err)
		}
		return &stateOutput{Body: h.state()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{id}",
		Summary:     "Update project metadata",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		patch := domain.ProjectPatch{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Deadline:    dateField(rawBodyMap(ctx), "deadline", input.Body.Deadline),
		}
		p, err := h.store.UpdateProject(ctx, input.ID, patch)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{id}",
		Summary:       "Delete a project",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := h.store.DeleteProject(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-active-project",
		Method:      http.MethodPut,
		Path:        "/projects/active",
		Summary:     "Switch the active project",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SetActiveRequest `json:"body"`
	}) (*stateOutput, error) {
		h.store.SetActiveProject(ctx, input.Body.ID)
		return &stateOutput{Body: h.state()}, nil
	})
}
