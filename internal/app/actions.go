package app

import (
	"context"
	"errors"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/access"
	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/form"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui/taskform"
)

type taskSubmitResultMsg struct {
	admin bool
	err   error
}

type projectSubmitResultMsg struct {
	admin bool
	err   error
}

// openTaskForm opens the task form for t, or a blank one when t is nil.
// Admin tabs use the admin controller, which also picks the owner.
func (m *Model) openTaskForm(t *model.Task) tea.Cmd {
	admin := m.isAdminView()
	m.taskForm = taskform.New(admin, m.layout.ContentWidth(), m.layout.ContentHeight())

	var draft form.AdminTaskDraft
	var refs form.Refs
	if admin {
		refs = m.adminRefs()
		if t == nil {
			m.adminTaskCtl.OpenCreate(refs)
		} else {
			m.adminTaskCtl.OpenEdit(t.ID, form.AdminTaskDraftOf(*t))
		}
		draft = m.adminTaskCtl.Draft()
	} else {
		refs = form.Refs{Projects: m.dashboardData().Projects}
		if t == nil {
			m.taskCtl.OpenCreate(refs)
			if !m.projectFilter.IsZero() {
				d := m.taskCtl.Draft()
				d.Project = m.projectFilter
				m.taskCtl.SetDraft(d)
			}
		} else {
			m.taskCtl.OpenEdit(t.ID, form.TaskDraftOf(*t))
		}
		draft = form.AdminTaskDraft{TaskDraft: m.taskCtl.Draft()}
	}

	m.currentView = ViewTaskForm
	return m.taskForm.Start(draft, t != nil, refs)
}

// submitTask validates the entered draft and dispatches it off the UI
// goroutine. A missing field reopens the form without a request.
func (m *Model) submitTask(d form.AdminTaskDraft) tea.Cmd {
	ctx := m.root
	if m.isAdminView() {
		m.adminTaskCtl.SetDraft(d)
		draft, id, err := m.adminTaskCtl.Begin()
		if err != nil {
			return m.taskForm.Reopen(formMessage(m.adminTaskCtl.Message(), err))
		}
		dispatch := form.AdminTaskDispatch(m.api)
		return func() tea.Msg {
			return taskSubmitResultMsg{admin: true, err: dispatch(ctx, id, draft)}
		}
	}

	m.taskCtl.SetDraft(d.TaskDraft)
	draft, id, err := m.taskCtl.Begin()
	if err != nil {
		return m.taskForm.Reopen(formMessage(m.taskCtl.Message(), err))
	}
	dispatch := form.TaskDispatch(m.api)
	return func() tea.Msg {
		return taskSubmitResultMsg{err: dispatch(ctx, id, draft)}
	}
}

func (m *Model) finishTask(msg taskSubmitResultMsg) tea.Cmd {
	var (
		reload  form.Reload
		err     error
		message string
	)
	if msg.admin {
		reload, err = m.adminTaskCtl.Finish(msg.err)
		message = m.adminTaskCtl.Message()
	} else {
		reload, err = m.taskCtl.Finish(msg.err)
		message = m.taskCtl.Message()
	}

	if errors.Is(err, form.ErrNotEditing) {
		return nil
	}
	if err != nil {
		if api.StatusOf(err) == http.StatusUnauthorized {
			cmd, _ := m.handleAuthError(err)
			return cmd
		}
		m.logger.Debug("task form rejected", zap.Error(err))
		return m.taskForm.Reopen(message)
	}

	m.currentView = ViewMain
	if reload.Created {
		m.setNotice("Task created", false)
	} else {
		m.setNotice("Task saved", false)
	}
	return m.load()
}

// openProjectForm opens the project form for p, or a blank one when p is
// nil, in the project manager that is on screen.
func (m *Model) openProjectForm(p *model.Project) tea.Cmd {
	if m.isAdminView() {
		if p == nil {
			m.adminProjectCtl.OpenCreate(form.Refs{Users: m.adminUsersRef()})
		} else {
			m.adminProjectCtl.OpenEdit(p.ID, form.AdminProjectDraftOf(*p))
		}
		return m.adminProjects.StartForm(m.adminProjectCtl.Draft(), p != nil)
	}

	if p == nil {
		m.projectCtl.OpenCreate(form.Refs{})
	} else {
		m.projectCtl.OpenEdit(p.ID, form.ProjectDraftOf(*p))
	}
	return m.projectView.StartForm(form.AdminProjectDraft{ProjectDraft: m.projectCtl.Draft()}, p != nil)
}

func (m *Model) submitProject(d form.AdminProjectDraft) tea.Cmd {
	ctx := m.root
	if m.isAdminView() {
		m.adminProjectCtl.SetDraft(d)
		draft, id, err := m.adminProjectCtl.Begin()
		if err != nil {
			return m.adminProjects.Reopen(formMessage(m.adminProjectCtl.Message(), err))
		}
		dispatch := form.AdminProjectDispatch(m.api)
		return func() tea.Msg {
			return projectSubmitResultMsg{admin: true, err: dispatch(ctx, id, draft)}
		}
	}

	m.projectCtl.SetDraft(d.ProjectDraft)
	draft, id, err := m.projectCtl.Begin()
	if err != nil {
		return m.projectView.Reopen(formMessage(m.projectCtl.Message(), err))
	}
	dispatch := form.ProjectDispatch(m.api)
	return func() tea.Msg {
		return projectSubmitResultMsg{err: dispatch(ctx, id, draft)}
	}
}

func (m *Model) finishProject(msg projectSubmitResultMsg) tea.Cmd {
	var (
		reload  form.Reload
		err     error
		message string
	)
	if msg.admin {
		reload, err = m.adminProjectCtl.Finish(msg.err)
		message = m.adminProjectCtl.Message()
	} else {
		reload, err = m.projectCtl.Finish(msg.err)
		message = m.projectCtl.Message()
	}

	if errors.Is(err, form.ErrNotEditing) {
		return nil
	}
	if err != nil {
		if api.StatusOf(err) == http.StatusUnauthorized {
			cmd, _ := m.handleAuthError(err)
			return cmd
		}
		if msg.admin {
			return m.adminProjects.Reopen(message)
		}
		return m.projectView.Reopen(message)
	}

	if msg.admin {
		m.adminProjects.CloseForm()
	} else {
		m.projectView.CloseForm()
	}
	if reload.Created {
		m.setNotice("Project created", false)
	} else {
		m.setNotice("Project saved", false)
	}
	return m.load()
}

func (m *Model) deleteProject(p model.Project) tea.Cmd {
	ctx, gw := m.root, m.api
	if p.ID == m.projectFilter {
		m.projectFilter = ""
	}
	if m.isAdminView() {
		return mutate(ctx, "Project deleted", "Could not delete project", func(ctx context.Context) error {
			return gw.DeleteAdminProject(ctx, p.ID)
		})
	}
	return mutate(ctx, "Project deleted", "Could not delete project", func(ctx context.Context) error {
		return gw.DeleteProject(ctx, p.ID)
	})
}

func (m *Model) deleteAdminTask(t model.Task) tea.Cmd {
	ctx, gw := m.root, m.api
	return mutate(ctx, "Task deleted", "Could not delete task", func(ctx context.Context) error {
		return gw.DeleteAdminTask(ctx, t.ID)
	})
}

// toggleComplete flips t between completed and to do.
func (m *Model) toggleComplete(t model.Task) tea.Cmd {
	next := model.StatusCompleted
	if t.Status == model.StatusCompleted {
		next = model.StatusTodo
	}
	patch := api.TaskPatch{Status: &next}
	ctx, gw := m.root, m.api
	success := "Marked " + next.Label()

	if m.isAdminView() {
		return mutate(ctx, success, "Could not update task", func(ctx context.Context) error {
			_, err := gw.UpdateAdminTask(ctx, t.ID, patch)
			return err
		})
	}
	return mutate(ctx, success, "Could not update task", func(ctx context.Context) error {
		_, err := gw.UpdateTask(ctx, t.ID, patch)
		return err
	})
}

func mutate(ctx context.Context, success, failure string, call func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutationResultMsg{success: success, failure: failure, err: call(ctx)}
	}
}

func formMessage(message string, err error) string {
	if message != "" {
		return message
	}
	return err.Error()
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "dashboard", "home":
		return m.navigate(access.Dashboard)
	case "admin":
		return m.navigate(access.AdminOverview)
	case "admin tasks":
		return m.navigate(access.AdminTasks)
	case "admin projects":
		return m.navigate(access.AdminProjects)
	case "admin users":
		return m.navigate(access.AdminUsers)
	case "projects":
		if m.isAdminView() {
			return m.navigate(access.AdminProjects)
		}
		m.currentView = ViewProjects
		return nil
	case "new task", "task":
		if m.view != access.Dashboard && m.view != access.AdminTasks {
			m.setNotice("Open a task list first", true)
			return nil
		}
		return m.openTaskForm(nil)
	case "new project", "project":
		switch m.view {
		case access.Dashboard:
			m.currentView = ViewProjects
		case access.AdminProjects:
		default:
			m.setNotice("Open a project list first", true)
			return nil
		}
		return m.openProjectForm(nil)
	case "reload", "refresh":
		return m.load()
	case "clear filters", "clear":
		m.projectFilter = ""
		m.ownerFilter = ""
		m.adminProjects.SetOwnerFilter("")
		return tea.Batch(m.taskList.ClearFilters(), m.adminTaskList.ClearFilters(), m.load())
	case "settings", "config":
		m.currentView = ViewSettings
		return nil
	case "logout":
		return m.logout()
	case "quit", "q":
		return tea.Quit
	case "":
		return nil
	default:
		m.setNotice("Unknown command: "+cmd, true)
		return nil
	}
}
