package form

import (
	"context"
	"strings"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/model"
)

// TaskDraft is the editable content of a personal task.
type TaskDraft struct {
	Title       string
	Description string
	DueDate     model.Date
	Priority    model.Priority
	Status      model.Status
	Project     model.ID
}

// Missing implements Draft.
func (d TaskDraft) Missing() string {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return "Title"
	case d.DueDate.IsZero():
		return "Due date"
	case d.Project.IsZero():
		return "Project"
	}
	return ""
}

// TaskDraftOf seeds a draft from an existing task.
func TaskDraftOf(t model.Task) TaskDraft {
	return TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		Status:      t.Status,
		Project:     t.Project,
	}
}

func defaultTask(refs Refs) TaskDraft {
	return TaskDraft{
		Priority: model.PriorityMedium,
		Status:   model.StatusTodo,
		Project:  refs.firstProject(),
	}
}

// NewTaskForm returns the personal task form.
func NewTaskForm() *Controller[TaskDraft] { return newController(defaultTask) }

func (d TaskDraft) input() api.TaskInput {
	return api.TaskInput{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		DueDate:     d.DueDate,
		Priority:    d.Priority,
		Status:      d.Status,
		Project:     d.Project,
	}
}

func (d TaskDraft) patch() api.TaskPatch {
	in := d.input()
	return api.TaskPatch{
		Title:       &in.Title,
		Description: &in.Description,
		DueDate:     &in.DueDate,
		Priority:    &in.Priority,
		Status:      &in.Status,
		Project:     &in.Project,
	}
}

// AdminTaskDraft adds the owner to a task draft.
type AdminTaskDraft struct {
	TaskDraft
	Owner model.ID
}

// Missing implements Draft.
func (d AdminTaskDraft) Missing() string {
	if f := d.TaskDraft.Missing(); f != "" {
		return f
	}
	if d.Owner.IsZero() {
		return "User"
	}
	return ""
}

// AdminTaskDraftOf seeds an admin draft from an existing task.
func AdminTaskDraftOf(t model.Task) AdminTaskDraft {
	return AdminTaskDraft{TaskDraft: TaskDraftOf(t), Owner: t.Owner}
}

func defaultAdminTask(refs Refs) AdminTaskDraft {
	return AdminTaskDraft{TaskDraft: defaultTask(refs), Owner: refs.firstUser()}
}

// NewAdminTaskForm returns the admin task form.
func NewAdminTaskForm() *Controller[AdminTaskDraft] { return newController(defaultAdminTask) }

// TaskWriter creates and updates the caller's tasks.
type TaskWriter interface {
	CreateTask(ctx context.Context, in api.TaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, id model.ID, patch api.TaskPatch) (*model.Task, error)
}

// TaskDispatch sends personal task drafts through w.
func TaskDispatch(w TaskWriter) Dispatch[TaskDraft] {
	return func(ctx context.Context, id model.ID, d TaskDraft) error {
		var err error
		if id.IsZero() {
			_, err = w.CreateTask(ctx, d.input())
		} else {
			_, err = w.UpdateTask(ctx, id, d.patch())
		}
		return err
	}
}

// AdminTaskWriter creates and updates any task.
type AdminTaskWriter interface {
	CreateAdminTask(ctx context.Context, in api.TaskInput) (*model.Task, error)
	UpdateAdminTask(ctx context.Context, id model.ID, patch api.TaskPatch) (*model.Task, error)
}

// AdminTaskDispatch sends admin task drafts through w.
func AdminTaskDispatch(w AdminTaskWriter) Dispatch[AdminTaskDraft] {
	return func(ctx context.Context, id model.ID, d AdminTaskDraft) error {
		var err error
		if id.IsZero() {
			in := d.input()
			in.User = d.Owner
			_, err = w.CreateAdminTask(ctx, in)
		} else {
			p := d.patch()
			owner := d.Owner
			p.User = &owner
			_, err = w.UpdateAdminTask(ctx, id, p)
		}
		return err
	}
}
