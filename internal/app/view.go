package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/access"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui/overview"
)

var adminTabLabels = map[access.View]string{
	access.AdminOverview: "Overview",
	access.AdminTasks:    "Tasks",
	access.AdminProjects: "Projects",
	access.AdminUsers:    "Users",
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.resolving {
		return lipgloss.Place(m.layout.Width, m.layout.Height, lipgloss.Center, lipgloss.Center,
			theme.HelpStyle.Render("Checking saved session..."))
	}
	if m.view == access.Login {
		return m.loginView.View()
	}

	title := "Taskboard"
	if m.isAdminView() {
		title = "Taskboard Admin"
	}
	header := m.layout.RenderHeader(title, m.who())
	content := m.renderContent()
	content = lipgloss.NewStyle().
		Height(m.layout.ContentHeight()).
		MaxHeight(m.layout.ContentHeight()).
		Render(content)

	statusText, isError := m.keyHints(), false
	if m.notice != "" {
		statusText, isError = m.notice, m.noticeError
	}
	statusBar := m.layout.RenderStatusBar(statusText, isError)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) who() string {
	if m.identity == nil {
		return ""
	}
	who := m.identity.DisplayName
	if m.identity.IsStaff {
		who += " (staff)"
	}
	return who
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.confirm.Active() {
		return m.confirm.View()
	}

	switch m.currentView {
	case ViewDetail:
		return m.detail.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewProjects:
		return m.projectView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	}

	switch m.view {
	case access.Dashboard:
		return m.renderDashboard()
	case access.AdminOverview:
		stats, _ := m.admin.overview.Get()
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), overview.Admin(stats, m.layout.ContentWidth()))
	case access.AdminTasks:
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.adminTaskList.View())
	case access.AdminProjects:
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.adminProjects.View())
	case access.AdminUsers:
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.usersView.View())
	}
	return ""
}

func (m Model) renderDashboard() string {
	data := m.dashboardData()

	project := "all projects"
	for _, p := range data.Projects {
		if p.ID == m.projectFilter {
			project = theme.ProjectBadge(p.Name, p.Color)
		}
	}
	filter := theme.HelpStyle.Render("Showing ") + project
	if summary := m.taskList.FilterSummary(); summary != "" {
		filter += theme.HelpStyle.Render(" | " + summary)
	}
	if at := m.dashboardLoadedAt(); !at.IsZero() {
		filter += theme.HelpStyle.Render(" | updated " + at.Format("15:04"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		overview.StatsBar(m.dashboardStats()),
		filter,
		m.taskList.View(),
	)
}

func (m Model) renderTabs() string {
	labels := make([]string, len(access.AdminViews))
	active := 0
	for i, v := range access.AdminViews {
		labels[i] = adminTabLabels[v]
		if v == m.view {
			active = i
		}
	}
	return m.layout.RenderTabs(labels, active) + "\n"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.confirm.Active() {
		return "enter confirm | esc cancel"
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | e edit | j/k scroll"
	case ViewTaskForm:
		return "enter next/submit | esc cancel"
	case ViewProjects:
		return "n new | e edit | d delete | enter focus | / search | esc back"
	case ViewSettings:
		return "e edit | t test connection | esc back"
	}

	hints := []string{"q quit", "? help", ": command"}
	switch m.view {
	case access.Dashboard:
		hints = append(hints, "n new", "e edit", "x done", "f project", "p projects", "/ search")
	case access.AdminOverview:
		hints = append(hints, "[ ] tabs", "r reload")
	case access.AdminTasks:
		hints = append(hints, "[ ] tabs", "n new", "e edit", "d delete", "u owner", "/ search")
	case access.AdminProjects:
		hints = append(hints, "[ ] tabs", "n new", "e edit", "d delete", "u owner")
	case access.AdminUsers:
		hints = append(hints, "[ ] tabs")
	}
	return strings.Join(hints, " | ")
}
