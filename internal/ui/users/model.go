// Package users renders the admin user table.
package users

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// Model is a read-only table of accounts.
type Model struct {
	table  table.Model
	users  []model.User
	width  int
	height int
}

// New creates an empty user table.
func New(width, height int) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(max(height-4, 3)),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorBlue).
		Bold(true)
	t.SetStyles(styles)
	return Model{table: t, width: width, height: height}
}

func columns(width int) []table.Column {
	rest := max(width-8-16-14, 30)
	return []table.Column{
		{Title: "Name", Width: rest / 2},
		{Title: "Email", Width: rest - rest/2},
		{Title: "Username", Width: 16},
		{Title: "Role", Width: 14},
	}
}

// Role labels an account for display.
func Role(u model.User) string {
	switch {
	case u.IsSuperuser:
		return "Superuser"
	case u.IsStaff:
		return "Staff"
	default:
		return "User"
	}
}

// SetUsers replaces the table rows.
func (m *Model) SetUsers(users []model.User) {
	m.users = users
	rows := make([]table.Row, len(users))
	for i, u := range users {
		rows[i] = table.Row{u.DisplayName(), u.Email, u.Username, Role(u)}
	}
	m.table.SetRows(rows)
}

// Selected returns the focused account.
func (m Model) Selected() (model.User, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.users) {
		return model.User{}, false
	}
	return m.users[i], true
}

// Update handles navigation keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table.
func (m Model) View() string {
	if len(m.users) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No users.")
	}
	title := theme.TitleStyle.Render("Users")
	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, m.table.View()),
	)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(height-4, 3))
}
