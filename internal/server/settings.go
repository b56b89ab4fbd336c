package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

func (h *handlers) registerSettings(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/settings",
		Summary:     "Report whether an AI credential is configured",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SettingsResponse `json:"body"`
	}, error) {
		return &struct {
			Body SettingsResponse `json:"body"`
		}{Body: SettingsResponse{APIKeySet: h.store.APIKey() != ""}}, nil
	})

	// The key is write-only over the API.
	huma.Register(api, huma.Operation{
		OperationID:   "set-api-key",
		Method:        http.MethodPut,
		Path:          "/settings/api-key",
		Summary:       "Store the AI credential",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body APIKeyRequest `json:"body"`
	}) (*struct{}, error) {
		key := strings.TrimSpace(input.Body.APIKey)
		if key == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "apiKey is required", nil)
		}
		h.store.SetAPIKey(ctx, key)
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "clear-api-key",
		Method:        http.MethodDelete,
		Path:          "/settings/api-key",
		Summary:       "Forget the AI credential",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		h.store.SetAPIKey(ctx, "")
		return &struct{}{}, nil
	})
}
