package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/access"
	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/cache"
	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/form"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/session"
	"github.com/nhle/taskboard/internal/ui/login"
)

// API is the gateway surface the client uses. *api.Client implements it.
type API interface {
	cache.DashboardSource
	cache.AdminSource
	form.TaskWriter
	form.ProjectWriter
	form.AdminTaskWriter
	form.AdminProjectWriter
	DeleteProject(ctx context.Context, id model.ID) error
	DeleteAdminProject(ctx context.Context, id model.ID) error
	DeleteAdminTask(ctx context.Context, id model.ID) error
}

type sessionResolvedMsg struct {
	identity model.Identity
	ok       bool
}

type authResultMsg struct {
	identity model.Identity
	err      error
}

type loggedOutMsg struct{}

type dashboardLoadedMsg struct {
	data cache.DashboardData
	err  error
}

type adminOverviewLoadedMsg struct {
	stats model.AdminStats
	err   error
}

type adminTasksLoadedMsg struct {
	data cache.AdminTasksData
	err  error
}

type adminProjectsLoadedMsg struct {
	data cache.AdminProjectsData
	err  error
}

type adminUsersLoadedMsg struct {
	users []model.User
	err   error
}

// mutationResultMsg reports a one-shot write such as a delete.
type mutationResultMsg struct {
	success string
	failure string
	err     error
}

// load starts the load of the current top-level view under its scope.
func (m Model) load() tea.Cmd {
	if m.scope == nil || m.scope.Closed() {
		return nil
	}
	ctx := m.scope.Context()

	switch m.view {
	case access.Dashboard:
		if m.dashboard == nil {
			return nil
		}
		d, project := m.dashboard, m.projectFilter
		return func() tea.Msg {
			data, err := d.Load(ctx, project)
			return dashboardLoadedMsg{data: data, err: err}
		}
	case access.AdminOverview:
		if m.admin == nil {
			return nil
		}
		o := m.admin.overview
		return func() tea.Msg {
			stats, err := o.Load(ctx)
			return adminOverviewLoadedMsg{stats: stats, err: err}
		}
	case access.AdminTasks:
		if m.admin == nil {
			return nil
		}
		c := m.admin.tasks
		return func() tea.Msg {
			data, err := c.Load(ctx)
			return adminTasksLoadedMsg{data: data, err: err}
		}
	case access.AdminProjects:
		if m.admin == nil {
			return nil
		}
		c := m.admin.projects
		return func() tea.Msg {
			data, err := c.Load(ctx)
			return adminProjectsLoadedMsg{data: data, err: err}
		}
	case access.AdminUsers:
		if m.admin == nil {
			return nil
		}
		c := m.admin.users
		return func() tea.Msg {
			users, err := c.Load(ctx)
			return adminUsersLoadedMsg{users: users, err: err}
		}
	}
	return nil
}

// loadFailed turns a load error into a notice while the cache keeps its
// last good value. It reports false when err is nil.
func (m *Model) loadFailed(err error) (tea.Cmd, bool) {
	if err == nil {
		return nil, false
	}
	if errors.Is(err, cache.ErrDiscarded) {
		return nil, true
	}
	if cmd, handled := m.handleAuthError(err); handled {
		return cmd, true
	}
	m.logger.Warn("load failed", zap.String("view", string(m.view)), zap.Error(err))
	m.setNotice(errMessage(err), true)
	return nil, true
}

// handleAuthError reacts to a rejected credential or a refused admin call.
func (m *Model) handleAuthError(err error) (tea.Cmd, bool) {
	switch api.StatusOf(err) {
	case http.StatusUnauthorized:
		m.logger.Info("credential rejected, signing out")
		return m.expire(), true
	case http.StatusForbidden:
		if !m.view.IsAdmin() {
			m.setNotice(errMessage(err), true)
			return nil, true
		}
		m.setNotice(access.NoticeAdminOnly, true)
		return m.navigate(access.Dashboard), true
	}
	return nil, false
}

func (m Model) handleDashboardLoaded(msg dashboardLoadedMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.loadFailed(msg.err); handled {
		return m, cmd
	}
	if local := derive.Aggregate(msg.data.Tasks, m.now()); local != msg.data.Stats {
		m.logger.Debug("dashboard stats differ from server",
			zap.Int("local_total", local.Total), zap.Int("server_total", msg.data.Stats.Total),
			zap.Int("local_overdue", local.Overdue), zap.Int("server_overdue", msg.data.Stats.Overdue))
	}
	m.projectView.SetProjects(msg.data.Projects, nil)
	return m, m.taskList.SetTasks(msg.data.Tasks)
}

func (m Model) handleAdminOverviewLoaded(msg adminOverviewLoadedMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.loadFailed(msg.err); handled {
		return m, cmd
	}
	return m, nil
}

func (m Model) handleAdminTasksLoaded(msg adminTasksLoadedMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.loadFailed(msg.err); handled {
		return m, cmd
	}
	return m, m.adminTaskList.SetTasks(msg.data.Tasks)
}

func (m Model) handleAdminProjectsLoaded(msg adminProjectsLoadedMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.loadFailed(msg.err); handled {
		return m, cmd
	}
	m.adminProjects.SetProjects(msg.data.Projects, msg.data.Users)
	return m, nil
}

func (m Model) handleAdminUsersLoaded(msg adminUsersLoadedMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.loadFailed(msg.err); handled {
		return m, cmd
	}
	m.usersView.SetUsers(msg.users)
	return m, nil
}

// dashboardStats counts the cached dashboard tasks in one pass.
func (m Model) dashboardStats() model.Stats {
	return derive.Aggregate(m.dashboardData().Tasks, m.now())
}

// dashboardLoadedAt returns when the dashboard cache was last replaced.
func (m Model) dashboardLoadedAt() time.Time {
	if m.dashboard == nil {
		return time.Time{}
	}
	return m.dashboard.LoadedAt()
}

// dashboardData returns the cached dashboard, empty before the first load.
func (m Model) dashboardData() cache.DashboardData {
	if m.dashboard == nil {
		return cache.DashboardData{}
	}
	data, _ := m.dashboard.Get()
	return data
}

// adminUsersRef returns the users known to the admin tabs.
func (m Model) adminUsersRef() []model.User {
	if m.admin == nil {
		return nil
	}
	if data, ok := m.admin.tasks.Get(); ok && len(data.Users) > 0 {
		return data.Users
	}
	if data, ok := m.admin.projects.Get(); ok {
		return data.Users
	}
	return nil
}

// adminRefs returns the pickers for admin forms.
func (m Model) adminRefs() form.Refs {
	if m.admin == nil {
		return form.Refs{}
	}
	if data, ok := m.admin.tasks.Get(); ok {
		return form.Refs{Projects: data.Projects, Users: data.Users}
	}
	if data, ok := m.admin.projects.Get(); ok {
		return form.Refs{Projects: data.Projects, Users: data.Users}
	}
	return form.Refs{}
}

func (m Model) login(msg login.LoginMsg) tea.Cmd {
	sessions, ctx := m.sessions, m.root
	return func() tea.Msg {
		id, err := sessions.Login(ctx, msg.Email, msg.Password)
		return authResultMsg{identity: id, err: err}
	}
}

func (m Model) signup(msg login.SignupMsg) tea.Cmd {
	sessions, ctx := m.sessions, m.root
	return func() tea.Msg {
		id, err := sessions.Signup(ctx, msg.Name, msg.Email, msg.Password)
		return authResultMsg{identity: id, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	sessions, ctx := m.sessions, m.root
	return func() tea.Msg {
		sessions.Logout(ctx)
		return loggedOutMsg{}
	}
}

// expire signs out after the server rejected the credential mid-session.
func (m *Model) expire() tea.Cmd {
	sessions, ctx := m.sessions, m.root
	return tea.Batch(
		m.signOut("Your session has expired. Please log in again."),
		func() tea.Msg {
			sessions.Logout(ctx)
			return nil
		},
	)
}

func errMessage(err error) string {
	if api.IsNetwork(err) {
		return "Cannot reach the server. Check your connection and try again."
	}
	return api.Message(err)
}

func authMessage(err error) string {
	if errors.Is(err, session.ErrResolveInFlight) {
		return "Still checking your saved session, try again in a moment."
	}
	return errMessage(err)
}
