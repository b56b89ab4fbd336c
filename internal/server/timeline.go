package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"taskdeck/internal/timeline"
)

// window resolves a YYYY-MM key, defaulting to the current month.
func (h *handlers) window(month string) (timeline.Window, error) {
	now := h.now()
	if month == "" {
		return timeline.MonthWindow(now), nil
	}
	w, err := timeline.ParseMonth(month, now.Location())
	if err != nil {
		return timeline.Window{}, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"month": month})
	}
	return w, nil
}

func (h *handlers) registerTimeline(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-timeline",
		Method:      http.MethodGet,
		Path:        "/timeline",
		Summary:     "Lane layout of the active project for one month",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Month string `query:"month" pattern:"^[0-9]{4}-[0-9]{2}$"`
	}) (*struct {
		Body TimelineResponse `json:"body"`
	}, error) {
		w, err := h.window(input.Month)
		if err != nil {
			return nil, err
		}
		tasks := h.store.Active().Tasks
		now := h.now()
		resp := TimelineResponse{
			Layout:  h.timeline.Layout(tasks, w),
			Overdue: len(timeline.Overdue(tasks, now)),
		}
		if off, ok := timeline.CurrentTimeOffset(w, h.timeline.Metrics, now); ok {
			resp.CurrentTimeOffset = &off
		}
		return &struct {
			Body TimelineResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-timeline-months",
		Method:      http.MethodGet,
		Path:        "/timeline/months",
		Summary:     "Months spanned by the active project's tasks",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MonthListResponse `json:"body"`
	}, error) {
		return &struct {
			Body MonthListResponse `json:"body"`
		}{Body: MonthListResponse{Items: timeline.MonthOptions(h.store.Active().Tasks, h.now())}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "drag-timeline-task",
		Method:      http.MethodPost,
		Path:        "/timeline/tasks/{id}/drag",
		Summary:     "Move a bar to a new horizontal offset, keeping its duration",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body DragRequest `json:"body"`
	}) (*taskOutput, error) {
		w, err := h.window(input.Body.Month)
		if err != nil {
			return nil, err
		}
		t, err := h.timeline.DragStop(ctx, input.ID, w, input.Body.X)
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resize-timeline-task",
		Method:      http.MethodPost,
		Path:        "/timeline/tasks/{id}/resize",
		Summary:     "Resize a bar to a new offset and width",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body ResizeRequest `json:"body"`
	}) (*taskOutput, error) {
		w, err := h.window(input.Body.Month)
		if err != nil {
			return nil, err
		}
		t, err := h.timeline.ResizeStop(ctx, input.ID, w, input.Body.X, input.Body.Width)
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})
}
