package server

import (
	"taskdeck/internal/ai"
	"taskdeck/internal/domain"
	"taskdeck/internal/timeline"
)

// ApiError documents the error envelope in the OpenAPI schema.
type ApiError struct {
	Error apiErrorBody `json:"error"`
}

type StateResponse struct {
	Project     domain.Project          `json:"project"`
	Tasks       []domain.Task           `json:"tasks"`
	AllProjects []domain.ProjectSummary `json:"allProjects"`
	Progress    domain.Progress         `json:"progress"`
	APIKeySet   bool                    `json:"apiKeySet"`
}

type ProjectListResponse struct {
	Items           []domain.ProjectSummary `json:"items"`
	ActiveProjectID string                  `json:"activeProjectId"`
}

type CreateProjectRequest struct {
	Name string `json:"name" minLength:"1"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Deadline    *string `json:"deadline,omitempty" nullable:"true"`
}

type SetActiveRequest struct {
	ID string `json:"id" minLength:"1"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title" minLength:"1"`
	Description string   `json:"description,omitempty"`
	Urgency     *float64 `json:"urgency,omitempty" minimum:"0" maximum:"10"`
	Importance  *float64 `json:"importance,omitempty" minimum:"0" maximum:"10"`
	StartDate   string   `json:"startDate,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
}

func (r CreateTaskRequest) input() domain.TaskInput {
	return domain.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Urgency:     r.Urgency,
		Importance:  r.Importance,
		StartDate:   r.StartDate,
		Deadline:    r.Deadline,
	}
}

type BatchTasksRequest struct {
	Tasks []CreateTaskRequest `json:"tasks" minItems:"1"`
}

type UpdateTaskRequest struct {
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Completed    *bool            `json:"completed,omitempty"`
	Pinned       *bool            `json:"pinned,omitempty"`
	Urgency      *float64         `json:"urgency,omitempty" minimum:"0" maximum:"10"`
	Importance   *float64         `json:"importance,omitempty" minimum:"0" maximum:"10"`
	StartDate    *string          `json:"startDate,omitempty" nullable:"true"`
	Deadline     *string          `json:"deadline,omitempty" nullable:"true"`
	LastPosition *domain.Position `json:"lastPosition,omitempty"`
}

type TaskListResponse struct {
	Items []domain.Task `json:"items"`
}

// MatrixPoint is an incomplete task placed on the Eisenhower matrix:
// x is urgency, y is importance.
type MatrixPoint struct {
	TaskID   string  `json:"taskId"`
	Title    string  `json:"title"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
	Quadrant string  `json:"quadrant"`
	Label    string  `json:"label"`
}

type MatrixResponse struct {
	Items []MatrixPoint `json:"items"`
}

type MoveRequest struct {
	Urgency    float64 `json:"urgency"`
	Importance float64 `json:"importance"`
}

type TimelineResponse struct {
	timeline.Layout
	CurrentTimeOffset *float64 `json:"currentTimeOffset,omitempty"`
	Overdue           int      `json:"overdue"`
}

type MonthListResponse struct {
	Items []timeline.MonthOption `json:"items"`
}

type DragRequest struct {
	Month string  `json:"month,omitempty" pattern:"^[0-9]{4}-[0-9]{2}$"`
	X     float64 `json:"x"`
}

type ResizeRequest struct {
	Month string  `json:"month,omitempty" pattern:"^[0-9]{4}-[0-9]{2}$"`
	X     float64 `json:"x"`
	Width float64 `json:"width" minimum:"0"`
}

type APIKeyRequest struct {
	APIKey string `json:"apiKey" minLength:"1"`
}

type SettingsResponse struct {
	APIKeySet bool `json:"apiKeySet"`
}

type GenerateRequest struct {
	Goal string `json:"goal" minLength:"1"`
}

type CompleteRequest struct {
	Title       string `json:"title" minLength:"1"`
	Description string `json:"description,omitempty"`
	Add         bool   `json:"add,omitempty"`
}

type CompleteResponse struct {
	Suggestion domain.TaskInput `json:"suggestion"`
	Task       *domain.Task     `json:"task,omitempty"`
}

type PrioritizeRequest struct {
	TaskIDs []string `json:"taskIds,omitempty"`
}

type ResourcesRequest struct {
	TaskID string `json:"taskId,omitempty"`
}

type ResourceListResponse struct {
	Items []ai.Resource `json:"items"`
}
