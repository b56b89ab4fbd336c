package taskdecksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal taskdeck HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults. AI calls can take a while, so the
// timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 90 * time.Second,
	}
}

// Task represents the API task model.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Completed   bool     `json:"completed"`
	Urgency     *float64 `json:"urgency,omitempty"`
	Importance  *float64 `json:"importance,omitempty"`
	StartDate   *string  `json:"startDate"`
	Deadline    *string  `json:"deadline"`
	Pinned      bool     `json:"pinned"`
	Color       string   `json:"color"`
}

// NewTask is the payload for creating a task.
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Urgency     *float64 `json:"urgency,omitempty"`
	Importance  *float64 `json:"importance,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
}

type ProjectSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Deadline  *string `json:"deadline"`
	TaskCount int     `json:"taskCount"`
}

type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Deadline    *string `json:"deadline"`
}

type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// State is the active project view.
type State struct {
	Project     Project          `json:"project"`
	Tasks       []Task           `json:"tasks"`
	AllProjects []ProjectSummary `json:"allProjects"`
	Progress    Progress         `json:"progress"`
	APIKeySet   bool             `json:"apiKeySet"`
}

type Bar struct {
	TaskID    string  `json:"taskId"`
	Title     string  `json:"title"`
	Lane      int     `json:"lane"`
	Left      float64 `json:"left"`
	Width     float64 `json:"width"`
	Top       float64 `json:"top"`
	Color     string  `json:"color"`
	Completed bool    `json:"completed"`
	Overdue   bool    `json:"overdue"`
}

// Timeline is one month of lane layout.
type Timeline struct {
	Month             string   `json:"month"`
	Days              int      `json:"days"`
	LaneCount         int      `json:"laneCount"`
	Bars              []Bar    `json:"bars"`
	Width             float64  `json:"width"`
	Height            float64  `json:"height"`
	CurrentTimeOffset *float64 `json:"currentTimeOffset,omitempty"`
	Overdue           int      `json:"overdue"`
}

type Resource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type taskList struct {
	Items []Task `json:"items"`
}

// State returns the active project view.
func (c *Client) State(ctx context.Context) (State, error) {
	var resp State
	err := c.do(ctx, http.MethodGet, "state", nil, &resp)
	return resp, err
}

// CreateProject creates a project and makes it active.
func (c *Client) CreateProject(ctx context.Context, name string) (State, error) {
	var resp State
	err := c.do(ctx, http.MethodPost, "projects", map[string]any{"name": name}, &resp)
	return resp, err
}

// UseProject switches the active project.
func (c *Client) UseProject(ctx context.Context, id string) (State, error) {
	var resp State
	err := c.do(ctx, http.MethodPut, "projects/active", map[string]any{"id": id}, &resp)
	return resp, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "projects/"+url.PathEscape(id), nil, nil)
}

// CreateTask adds a task to the active project.
func (c *Client) CreateTask(ctx context.Context, task NewTask) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "tasks", task, &resp)
	return resp, err
}

// ListTasks lists tasks of the active project, optionally by quadrant.
func (c *Client) ListTasks(ctx context.Context, quadrant string) ([]Task, error) {
	endpoint := "tasks"
	if quadrant != "" {
		endpoint += "?quadrant=" + url.QueryEscape(quadrant)
	}
	var resp taskList
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// UpdateTask applies a partial update. A nil value in fields sends JSON null,
// which clears startDate or deadline.
func (c *Client) UpdateTask(ctx context.Context, id string, fields map[string]any) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, "tasks/"+url.PathEscape(id), fields, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "tasks/"+url.PathEscape(id), nil, nil)
}

// Timeline returns the layout for month (YYYY-MM); empty means this month.
func (c *Client) Timeline(ctx context.Context, month string) (Timeline, error) {
	endpoint := "timeline"
	if month != "" {
		endpoint += "?month=" + url.QueryEscape(month)
	}
	var resp Timeline
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// DragTask moves a bar in month to offset x.
func (c *Client) DragTask(ctx context.Context, id, month string, x float64) (Task, error) {
	var resp Task
	endpoint := fmt.Sprintf("timeline/tasks/%s/drag", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"month": month, "x": x}, &resp)
	return resp, err
}

// ResizeTask sets a bar in month to offset x and the given width.
func (c *Client) ResizeTask(ctx context.Context, id, month string, x, width float64) (Task, error) {
	var resp Task
	endpoint := fmt.Sprintf("timeline/tasks/%s/resize", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"month": month, "x": x, "width": width}, &resp)
	return resp, err
}

// SetAPIKey stores the generative AI credential on the server.
func (c *Client) SetAPIKey(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodPut, "settings/api-key", map[string]any{"apiKey": key}, nil)
}

func (c *Client) ClearAPIKey(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "settings/api-key", nil, nil)
}

// GenerateTasks asks the server to break goal into tasks and add them.
func (c *Client) GenerateTasks(ctx context.Context, goal string) ([]Task, error) {
	var resp taskList
	err := c.do(ctx, http.MethodPost, "ai/tasks/generate", map[string]any{"goal": goal}, &resp)
	return resp.Items, err
}

// PrioritizeTasks re-scores the given tasks, or all of them when ids is empty.
func (c *Client) PrioritizeTasks(ctx context.Context, ids []string) ([]Task, error) {
	body := map[string]any{}
	if len(ids) > 0 {
		body["taskIds"] = ids
	}
	var resp taskList
	err := c.do(ctx, http.MethodPost, "ai/tasks/prioritize", body, &resp)
	return resp.Items, err
}

// FindResources suggests references for a task, or the project when taskID
// is empty.
func (c *Client) FindResources(ctx context.Context, taskID string) ([]Resource, error) {
	var resp struct {
		Items []Resource `json:"items"`
	}
	err := c.do(ctx, http.MethodPost, "ai/resources", map[string]any{"taskId": taskID}, &resp)
	return resp.Items, err
}

// Wipe erases all server state.
func (c *Client) Wipe(ctx context.Context) (State, error) {
	var resp State
	err := c.do(ctx, http.MethodPost, "wipe", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/v0/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
