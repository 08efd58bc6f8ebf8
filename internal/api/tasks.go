package api

import (
	"context"
	"net/url"

	"github.com/nhle/taskboard/internal/model"
)

// TaskQuery narrows the personal task list. Empty fields are not sent.
type TaskQuery struct {
	Project  model.ID
	Status   model.Status
	Priority model.Priority
	Search   string
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if !q.Project.IsZero() {
		v.Set("project", q.Project.String())
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Priority != "" {
		v.Set("priority", string(q.Priority))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// AdminTaskQuery narrows the admin task list. Empty fields are not sent.
type AdminTaskQuery struct {
	User    model.ID
	Project model.ID
	Status  model.Status
	Search  string
}

func (q AdminTaskQuery) values() url.Values {
	v := url.Values{}
	if !q.User.IsZero() {
		v.Set("user", q.User.String())
	}
	if !q.Project.IsZero() {
		v.Set("project", q.Project.String())
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// TaskInput is the create payload for a task. User is only honored by the
// admin endpoints.
type TaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     model.Date     `json:"due_date"`
	Priority    model.Priority `json:"priority"`
	Status      model.Status   `json:"status"`
	Project     model.ID       `json:"project"`
	User        model.ID       `json:"user,omitempty"`
}

// TaskPatch is a partial task update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	DueDate     *model.Date     `json:"due_date,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty"`
	Status      *model.Status   `json:"status,omitempty"`
	Project     *model.ID       `json:"project,omitempty"`
	User        *model.ID       `json:"user,omitempty"`
}

// ListTasks returns the caller's tasks matching q.
func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.get(ctx, "/tasks/", q.values(), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task owned by the caller.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	in.User = ""
	var t model.Task
	if err := c.post(ctx, "/tasks/", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies patch to one of the caller's tasks. Personal tasks
// cannot be deleted.
func (c *Client) UpdateTask(ctx context.Context, id model.ID, patch TaskPatch) (*model.Task, error) {
	patch.User = nil
	var t model.Task
	if err := c.patch(ctx, itemPath("/tasks/", id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DashboardStats returns the caller's task breakdown, optionally for a
// single project.
func (c *Client) DashboardStats(ctx context.Context, project model.ID) (*model.Stats, error) {
	q := url.Values{}
	if !project.IsZero() {
		q.Set("project", project.String())
	}
	var s model.Stats
	if err := c.get(ctx, "/dashboard/stats/", q, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AdminTasks lists every task matching q.
func (c *Client) AdminTasks(ctx context.Context, q AdminTaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.get(ctx, "/admin/tasks/", q.values(), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateAdminTask creates a task for any user.
func (c *Client) CreateAdminTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	var t model.Task
	if err := c.post(ctx, "/admin/tasks/", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateAdminTask applies patch to any task.
func (c *Client) UpdateAdminTask(ctx context.Context, id model.ID, patch TaskPatch) (*model.Task, error) {
	var t model.Task
	if err := c.patch(ctx, itemPath("/admin/tasks/", id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteAdminTask deletes any task.
func (c *Client) DeleteAdminTask(ctx context.Context, id model.ID) error {
	return c.delete(ctx, itemPath("/admin/tasks/", id))
}
