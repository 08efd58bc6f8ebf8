package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/access"
	"github.com/nhle/taskboard/internal/cache"
	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/form"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/session"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/internal/ui/command"
	"github.com/nhle/taskboard/internal/ui/confirm"
	"github.com/nhle/taskboard/internal/ui/detail"
	helpview "github.com/nhle/taskboard/internal/ui/help"
	"github.com/nhle/taskboard/internal/ui/login"
	"github.com/nhle/taskboard/internal/ui/projectmgr"
	"github.com/nhle/taskboard/internal/ui/settings"
	"github.com/nhle/taskboard/internal/ui/taskform"
	"github.com/nhle/taskboard/internal/ui/tasklist"
	"github.com/nhle/taskboard/internal/ui/users"
)

// ViewState is the overlay drawn on top of the current top-level view.
type ViewState int

const (
	ViewMain ViewState = iota
	ViewDetail
	ViewTaskForm
	ViewProjects
	ViewHelp
	ViewCommand
	ViewSettings
)

// Deps are the collaborators the root model is built from.
type Deps struct {
	API        API
	Session    *session.Store
	Logger     *zap.Logger
	Config     model.AppConfig
	ConfigPath string
	// Checker probes the API from the settings screen. Nil disables it.
	Checker settings.Checker
	// Now defaults to time.Now.
	Now func() time.Time
}

// adminCaches are built the first time the role gate lets a session into
// an admin view, and dropped on logout.
type adminCaches struct {
	overview *cache.AdminOverview
	tasks    *cache.AdminTasks
	projects *cache.AdminProjects
	users    *cache.AdminUsers
}

// Model is the root Bubble Tea model. It routes between the sign-in screen,
// the personal dashboard and the admin tabs, and owns every cache.
type Model struct {
	api      API
	sessions *session.Store
	logger   *zap.Logger
	cfg      model.AppConfig
	now      func() time.Time
	root     context.Context

	identity  *model.Identity
	resolving bool

	view         access.View
	currentView  ViewState
	previousView ViewState
	scope        *cache.Scope

	dashboard     *cache.Dashboard
	projectFilter model.ID
	admin         *adminCaches
	ownerFilter   model.ID

	taskCtl         *form.Controller[form.TaskDraft]
	projectCtl      *form.Controller[form.ProjectDraft]
	adminTaskCtl    *form.Controller[form.AdminTaskDraft]
	adminProjectCtl *form.Controller[form.AdminProjectDraft]

	keys          *keys.KeyMap
	layout        ui.Layout
	loginView     login.Model
	taskList      tasklist.Model
	adminTaskList tasklist.Model
	projectView   projectmgr.Model
	adminProjects projectmgr.Model
	usersView     users.Model
	detail        detail.Model
	taskForm      taskform.Model
	helpView      helpview.Model
	commandView   command.Model
	settingsView  settings.Model
	confirm       confirm.Model

	notice      string
	noticeError bool
	ready       bool
}

// New creates the root model. Nothing talks to the server until Init.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	now := d.Now
	if now == nil {
		now = time.Now
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sortKey := derive.ParseSortKey(d.Config.Display.DefaultSort)

	return Model{
		api:             d.API,
		sessions:        d.Session,
		logger:          logger,
		cfg:             d.Config,
		now:             now,
		root:            context.Background(),
		resolving:       true,
		view:            access.Login,
		taskCtl:         form.NewTaskForm(),
		projectCtl:      form.NewProjectForm(),
		adminTaskCtl:    form.NewAdminTaskForm(),
		adminProjectCtl: form.NewAdminProjectForm(),
		keys:            k,
		layout:          ui.NewLayout(80, 24),
		loginView:       login.New(80, 24),
		taskList:        tasklist.New(k, sortKey, 80, 24, tasklist.WithClock(now), tasklist.WithTitle("My Tasks")),
		adminTaskList: tasklist.New(k, sortKey, 80, 24,
			tasklist.WithClock(now), tasklist.WithOwnerColumn(), tasklist.WithTitle("All Tasks")),
		projectView:   projectmgr.New(k, false, 80, 24),
		adminProjects: projectmgr.New(k, true, 80, 24),
		usersView:     users.New(80, 24),
		detail:        detail.New(k, 80, 24),
		taskForm:      taskform.New(false, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		settingsView:  settings.New(d.Config, d.ConfigPath, d.Checker, k, 80, 24),
	}
}

// Init resolves the persisted credential, if any.
func (m Model) Init() tea.Cmd {
	sessions, ctx := m.sessions, m.root
	return func() tea.Msg {
		id, ok := sessions.Init(ctx)
		return sessionResolvedMsg{identity: id, ok: ok}
	}
}

// CurrentView returns the active top-level view.
func (m Model) CurrentView() access.View { return m.view }

// Overlay returns the overlay drawn over the top-level view.
func (m Model) Overlay() ViewState { return m.currentView }

// Notice returns the status bar message, if any.
func (m Model) Notice() string { return m.notice }

func (m *Model) setNotice(text string, isError bool) {
	m.notice = text
	m.noticeError = isError
}

// navigate runs the role gate for target, closes the scope of the view
// being left and starts loading the one entered. The gate runs before any
// admin cache exists, so a refused session never builds one.
func (m *Model) navigate(target access.View) tea.Cmd {
	decision := access.Gate(m.identity, target)
	if !decision.Allow {
		if decision.Notice != "" {
			m.setNotice(decision.Notice, true)
		}
		target = decision.Redirect
	}

	if m.scope != nil {
		m.scope.Close()
	}
	m.scope = cache.NewScope(m.root)
	m.view = target
	m.currentView = ViewMain
	m.ownerFilter = ""
	m.adminTaskList.SetOwnerFilter("")
	m.adminProjects.SetOwnerFilter("")

	if target == access.Login {
		return m.loginView.Start()
	}
	if target.IsAdmin() && m.admin == nil {
		m.admin = &adminCaches{
			overview: cache.NewAdminOverview(m.api),
			tasks:    cache.NewAdminTasks(m.api),
			projects: cache.NewAdminProjects(m.api),
			users:    cache.NewAdminUsers(m.api),
		}
	}
	return m.load()
}

// signIn records identity and opens its home view.
func (m *Model) signIn(id model.Identity) tea.Cmd {
	m.identity = &id
	m.dashboard = cache.NewDashboard(m.api)
	m.admin = nil
	m.projectFilter = ""
	m.logger.Info("session started", zap.String("user_id", id.UserID.String()), zap.Bool("staff", id.IsStaff))
	return m.navigate(access.Home(id))
}

// signOut drops every cache and returns to the sign-in screen.
func (m *Model) signOut(notice string) tea.Cmd {
	m.identity = nil
	m.dashboard = nil
	m.admin = nil
	m.projectFilter = ""
	m.loginView.Reset()
	if notice != "" {
		m.loginView.SetNotice(notice)
	}
	return m.navigate(access.Login)
}

func (m Model) isAdminView() bool { return m.view.IsAdmin() }

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m.updateActiveView(msg)

	case sessionResolvedMsg:
		m.resolving = false
		if msg.ok {
			return m, m.signIn(msg.identity)
		}
		return m, m.navigate(access.Login)

	case login.LoginMsg:
		return m, m.login(msg)

	case login.SignupMsg:
		return m, m.signup(msg)

	case authResultMsg:
		if msg.err != nil {
			return m, m.loginView.Fail(authMessage(msg.err))
		}
		return m, m.signIn(msg.identity)

	case loggedOutMsg:
		return m, m.signOut("You have been logged out.")

	case dashboardLoadedMsg:
		return m.handleDashboardLoaded(msg)
	case adminOverviewLoadedMsg:
		return m.handleAdminOverviewLoaded(msg)
	case adminTasksLoadedMsg:
		return m.handleAdminTasksLoaded(msg)
	case adminProjectsLoadedMsg:
		return m.handleAdminProjectsLoaded(msg)
	case adminUsersLoadedMsg:
		return m.handleAdminUsersLoaded(msg)

	case tasklist.SelectedTaskMsg:
		m.detail.SetTask(msg.Task)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewMain
		return m, nil

	case detail.EditMsg:
		return m, m.openTaskForm(&msg.Task)

	case taskform.SubmittedMsg:
		return m, m.submitTask(msg.Draft)

	case taskform.CancelMsg:
		m.taskCtl.Cancel()
		m.adminTaskCtl.Cancel()
		m.currentView = ViewMain
		return m, nil

	case taskSubmitResultMsg:
		return m, m.finishTask(msg)

	case projectmgr.OpenFormMsg:
		return m, m.openProjectForm(msg.Project)

	case projectmgr.SubmittedMsg:
		return m, m.submitProject(msg.Draft)

	case projectSubmitResultMsg:
		return m, m.finishProject(msg)

	case projectmgr.DeleteMsg:
		return m, m.deleteProject(msg.Project)

	case projectmgr.FocusMsg:
		m.currentView = ViewMain
		m.projectFilter = msg.Project.ID
		return m, m.load()

	case projectmgr.CloseMsg:
		m.currentView = ViewMain
		return m, nil

	case confirm.ResultMsg:
		if task, ok := msg.Subject.(model.Task); ok {
			if msg.Confirmed {
				return m, m.deleteAdminTask(task)
			}
			return m, nil
		}
		// Project deletions are confirmed inside the project manager.
		return m.updateActiveView(msg)

	case mutationResultMsg:
		if msg.err != nil {
			if cmd, handled := m.handleAuthError(msg.err); handled {
				return m, cmd
			}
			m.setNotice(msg.failure+": "+errMessage(msg.err), true)
			return m, nil
		}
		m.setNotice(msg.success, false)
		return m, m.load()

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case settings.DoneMsg:
		m.currentView = ViewMain
		return m, nil

	case settings.SavedMsg:
		m.cfg = msg.Config
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.resolving {
		return m, nil
	}
	if m.view == access.Login {
		return m.updateActiveView(msg)
	}
	m.notice = ""

	if m.confirm.Active() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateActiveView(msg)

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateActiveView(msg)

	case ViewMain:
		if m.capturingInput() {
			return m.updateActiveView(msg)
		}
		if next, cmd, ok := m.handleGlobalKey(msg); ok {
			return next, cmd
		}
		if next, cmd, ok := m.handleViewKey(msg); ok {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// capturingInput reports whether the main content has a text input or an
// embedded form focused, in which case single-letter shortcuts are typed.
func (m Model) capturingInput() bool {
	switch m.view {
	case access.Dashboard:
		return m.taskList.Searching()
	case access.AdminTasks:
		return m.adminTaskList.Searching()
	case access.AdminProjects:
		return m.adminProjects.Editing()
	}
	return false
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.helpView.SetContext(m.helpContext())
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Settings):
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m, nil, true

	case key.Matches(msg, m.keys.Logout):
		return m, m.logout(), true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load(), true

	case key.Matches(msg, m.keys.NextTab):
		return m, m.cycleAdminTab(1), true

	case key.Matches(msg, m.keys.PrevTab):
		return m, m.cycleAdminTab(-1), true
	}
	return m, nil, false
}

func (m Model) handleViewKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch m.view {
	case access.Dashboard:
		switch {
		case key.Matches(msg, m.keys.New):
			return m, m.openTaskForm(nil), true
		case key.Matches(msg, m.keys.Edit):
			if t, ok := m.taskList.SelectedTask(); ok {
				return m, m.openTaskForm(&t), true
			}
			return m, nil, true
		case key.Matches(msg, m.keys.Complete):
			if t, ok := m.taskList.SelectedTask(); ok {
				return m, m.toggleComplete(t), true
			}
			return m, nil, true
		case key.Matches(msg, m.keys.CycleProject):
			return m, m.cycleProjectFilter(), true
		case key.Matches(msg, m.keys.Projects):
			m.previousView = m.currentView
			m.currentView = ViewProjects
			return m, nil, true
		}

	case access.AdminTasks:
		switch {
		case key.Matches(msg, m.keys.New):
			return m, m.openTaskForm(nil), true
		case key.Matches(msg, m.keys.Edit):
			if t, ok := m.adminTaskList.SelectedTask(); ok {
				return m, m.openTaskForm(&t), true
			}
			return m, nil, true
		case key.Matches(msg, m.keys.Complete):
			if t, ok := m.adminTaskList.SelectedTask(); ok {
				return m, m.toggleComplete(t), true
			}
			return m, nil, true
		case key.Matches(msg, m.keys.Delete):
			t, ok := m.adminTaskList.SelectedTask()
			if !ok {
				return m, nil, true
			}
			var cmd tea.Cmd
			m.confirm, cmd = confirm.Open(
				fmt.Sprintf("Delete task %q?", t.Title),
				fmt.Sprintf("Owned by %s. This cannot be undone.", t.OwnerName),
				t, m.layout.ContentWidth(),
			)
			return m, cmd, true
		case key.Matches(msg, m.keys.CycleOwner):
			return m, m.cycleOwnerFilter(), true
		}

	case access.AdminProjects:
		if key.Matches(msg, m.keys.CycleOwner) {
			return m, m.cycleOwnerFilter(), true
		}
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.view == access.Login {
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}
	if m.confirm.Active() {
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	switch m.currentView {
	case ViewMain:
		switch m.view {
		case access.Dashboard:
			m.taskList, cmd = m.taskList.Update(msg)
		case access.AdminTasks:
			m.adminTaskList, cmd = m.adminTaskList.Update(msg)
		case access.AdminProjects:
			m.adminProjects, cmd = m.adminProjects.Update(msg)
		case access.AdminUsers:
			m.usersView, cmd = m.usersView.Update(msg)
		}
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.layout = ui.NewLayout(width, height)
	m.ready = true
	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()

	m.loginView.SetSize(w, h)
	// Dashboard: stats cards and the filter line sit above the list.
	m.taskList.SetSize(w, h-4)
	// Admin tabs: one tab row and a spacer.
	m.adminTaskList.SetSize(w, h-2)
	m.adminProjects.SetSize(w, h-2)
	m.usersView.SetSize(w, h-2)
	m.projectView.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.taskForm.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.settingsView.SetSize(w, h)
}

func (m *Model) cycleAdminTab(step int) tea.Cmd {
	if !m.isAdminView() {
		return nil
	}
	i := 0
	for j, v := range access.AdminViews {
		if v == m.view {
			i = j
		}
	}
	n := len(access.AdminViews)
	return m.navigate(access.AdminViews[(i+step+n)%n])
}

// cycleProjectFilter moves the dashboard to the next project, or back to
// all projects after the last one, and reloads it.
func (m *Model) cycleProjectFilter() tea.Cmd {
	if m.dashboard == nil {
		return nil
	}
	data, _ := m.dashboard.Get()
	ids := []model.ID{""}
	for _, p := range data.Projects {
		ids = append(ids, p.ID)
	}
	i := 0
	for j, id := range ids {
		if id == m.projectFilter {
			i = j
		}
	}
	m.projectFilter = ids[(i+1)%len(ids)]
	return m.load()
}

// cycleOwnerFilter restricts the admin lists to the next user.
func (m *Model) cycleOwnerFilter() tea.Cmd {
	ids := []model.ID{""}
	for _, u := range m.adminUsersRef() {
		ids = append(ids, u.ID)
	}
	i := 0
	for j, id := range ids {
		if id == m.ownerFilter {
			i = j
		}
	}
	m.ownerFilter = ids[(i+1)%len(ids)]
	m.adminProjects.SetOwnerFilter(m.ownerFilter)
	return m.adminTaskList.SetOwnerFilter(m.ownerFilter)
}

func (m Model) helpContext() string {
	switch m.view {
	case access.Dashboard:
		return "My dashboard"
	case access.AdminOverview:
		return "Admin overview"
	case access.AdminTasks:
		return "Admin tasks"
	case access.AdminProjects:
		return "Admin projects"
	case access.AdminUsers:
		return "Admin users"
	}
	return ""
}
