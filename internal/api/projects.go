package api

import (
	"context"
	"net/url"

	"github.com/nhle/taskboard/internal/model"
)

// ProjectInput is the create payload for a project. User is only honored
// by the admin endpoints.
type ProjectInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Color       model.Color `json:"color"`
	User        model.ID    `json:"user,omitempty"`
}

// ProjectPatch is a partial project update; nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Color       *model.Color `json:"color,omitempty"`
	User        *model.ID    `json:"user,omitempty"`
}

// ListProjects returns the caller's projects.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.get(ctx, "/projects/", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project owned by the caller.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*model.Project, error) {
	in.User = ""
	var p model.Project
	if err := c.post(ctx, "/projects/", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject applies patch to one of the caller's projects.
func (c *Client) UpdateProject(ctx context.Context, id model.ID, patch ProjectPatch) (*model.Project, error) {
	patch.User = nil
	var p model.Project
	if err := c.patch(ctx, itemPath("/projects/", id), patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject deletes one of the caller's projects and its tasks.
func (c *Client) DeleteProject(ctx context.Context, id model.ID) error {
	return c.delete(ctx, itemPath("/projects/", id))
}

// AdminProjects lists every project, optionally restricted to one owner.
func (c *Client) AdminProjects(ctx context.Context, owner model.ID) ([]model.Project, error) {
	q := url.Values{}
	if !owner.IsZero() {
		q.Set("user", owner.String())
	}
	var projects []model.Project
	if err := c.get(ctx, "/admin/projects/", q, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateAdminProject creates a project for any user.
func (c *Client) CreateAdminProject(ctx context.Context, in ProjectInput) (*model.Project, error) {
	var p model.Project
	if err := c.post(ctx, "/admin/projects/", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateAdminProject applies patch to any project.
func (c *Client) UpdateAdminProject(ctx context.Context, id model.ID, patch ProjectPatch) (*model.Project, error) {
	var p model.Project
	if err := c.patch(ctx, itemPath("/admin/projects/", id), patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteAdminProject deletes any project.
func (c *Client) DeleteAdminProject(ctx context.Context, id model.ID) error {
	return c.delete(ctx, itemPath("/admin/projects/", id))
}
