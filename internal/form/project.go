package form

import (
	"context"
	"strings"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/model"
)

// ProjectDraft is the editable content of a project.
type ProjectDraft struct {
	Name        string
	Description string
	Color       model.Color
}

// Missing implements Draft.
func (d ProjectDraft) Missing() string {
	if strings.TrimSpace(d.Name) == "" {
		return "Name"
	}
	return ""
}

// ProjectDraftOf seeds a draft from an existing project.
func ProjectDraftOf(p model.Project) ProjectDraft {
	return ProjectDraft{Name: p.Name, Description: p.Description, Color: p.Color}
}

func defaultProject(Refs) ProjectDraft {
	return ProjectDraft{Color: model.ColorBlue}
}

// NewProjectForm returns the personal project form.
func NewProjectForm() *Controller[ProjectDraft] { return newController(defaultProject) }

func (d ProjectDraft) input() api.ProjectInput {
	return api.ProjectInput{
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		Color:       d.Color,
	}
}

func (d ProjectDraft) patch() api.ProjectPatch {
	in := d.input()
	return api.ProjectPatch{Name: &in.Name, Description: &in.Description, Color: &in.Color}
}

// AdminProjectDraft adds the owner to a project draft.
type AdminProjectDraft struct {
	ProjectDraft
	Owner model.ID
}

// Missing implements Draft.
func (d AdminProjectDraft) Missing() string {
	if f := d.ProjectDraft.Missing(); f != "" {
		return f
	}
	if d.Owner.IsZero() {
		return "User"
	}
	return ""
}

// AdminProjectDraftOf seeds an admin draft from an existing project.
func AdminProjectDraftOf(p model.Project) AdminProjectDraft {
	return AdminProjectDraft{ProjectDraft: ProjectDraftOf(p), Owner: p.Owner}
}

func defaultAdminProject(refs Refs) AdminProjectDraft {
	return AdminProjectDraft{ProjectDraft: defaultProject(refs), Owner: refs.firstUser()}
}

// NewAdminProjectForm returns the admin project form.
func NewAdminProjectForm() *Controller[AdminProjectDraft] {
	return newController(defaultAdminProject)
}

// ProjectWriter creates and updates the caller's projects.
type ProjectWriter interface {
	CreateProject(ctx context.Context, in api.ProjectInput) (*model.Project, error)
	UpdateProject(ctx context.Context, id model.ID, patch api.ProjectPatch) (*model.Project, error)
}

// ProjectDispatch sends personal project drafts through w.
func ProjectDispatch(w ProjectWriter) Dispatch[ProjectDraft] {
	return func(ctx context.Context, id model.ID, d ProjectDraft) error {
		var err error
		if id.IsZero() {
			_, err = w.CreateProject(ctx, d.input())
		} else {
			_, err = w.UpdateProject(ctx, id, d.patch())
		}
		return err
	}
}

// AdminProjectWriter creates and updates any project.
type AdminProjectWriter interface {
	CreateAdminProject(ctx context.Context, in api.ProjectInput) (*model.Project, error)
	UpdateAdminProject(ctx context.Context, id model.ID, patch api.ProjectPatch) (*model.Project, error)
}

// AdminProjectDispatch sends admin project drafts through w.
func AdminProjectDispatch(w AdminProjectWriter) Dispatch[AdminProjectDraft] {
	return func(ctx context.Context, id model.ID, d AdminProjectDraft) error {
		var err error
		if id.IsZero() {
			in := d.input()
			in.User = d.Owner
			_, err = w.CreateAdminProject(ctx, in)
		} else {
			p := d.patch()
			owner := d.Owner
			p.User = &owner
			_, err = w.UpdateAdminProject(ctx, id, p)
		}
		return err
	}
}
