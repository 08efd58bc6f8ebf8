// Package overview renders stats cards for the dashboards.
package overview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.ColorBorder).
	Padding(0, 1).
	MarginRight(1)

func card(label string, value int, color lipgloss.TerminalColor) string {
	v := lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%d", value))
	l := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(label)
	return cardStyle.Render(v + " " + l)
}

// StatsBar renders the five task counters on one row.
func StatsBar(s model.Stats) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("total", s.Total, theme.ColorWhite),
		card("to do", s.Todo, theme.ColorBlue),
		card("in progress", s.InProgress, theme.ColorYellow),
		card("completed", s.Completed, theme.ColorGreen),
		card("overdue", s.Overdue, theme.ColorRed),
	)
}

// Admin renders the system-wide counters and the recent activity lists.
func Admin(s model.AdminStats, width int) string {
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		card("users", s.TotalUsers, theme.ColorMagenta),
		card("projects", s.TotalProjects, theme.ColorBlue),
	)

	colWidth := max((width-8)/3, 20)
	column := func(title string, lines []string) string {
		body := theme.HelpStyle.Render("none yet")
		if len(lines) > 0 {
			body = strings.Join(lines, "\n")
		}
		return lipgloss.NewStyle().Width(colWidth).MarginRight(2).Render(
			theme.TitleStyle.Render(title) + "\n" + body,
		)
	}

	users := make([]string, len(s.RecentUsers))
	for i, u := range s.RecentUsers {
		users[i] = fmt.Sprintf("%s %s", u.DisplayName(), theme.HelpStyle.Render(u.Email))
	}
	projects := make([]string, len(s.RecentProjects))
	for i, p := range s.RecentProjects {
		projects[i] = fmt.Sprintf("%s %s", theme.ProjectBadge(p.Name, p.Color), theme.HelpStyle.Render("@"+p.OwnerName))
	}
	tasks := make([]string, len(s.RecentTasks))
	for i, t := range s.RecentTasks {
		tasks[i] = fmt.Sprintf("%s %s", theme.StatusStyle(t.Status).Render(t.Status.Label()), t.Title)
	}

	recent := lipgloss.JoinHorizontal(lipgloss.Top,
		column("Recent users", users),
		column("Recent projects", projects),
		column("Recent tasks", tasks),
	)

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			theme.TitleStyle.Render("Overview"),
			top,
			StatsBar(s.Stats),
			"",
			recent,
		),
	)
}
