package tasklist

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	Task model.Task
}

// statusCycle is the order CycleStatus steps through; "" means all.
var statusCycle = []model.Status{"", model.StatusTodo, model.StatusInProgress, model.StatusCompleted}

// Model is the task list view component. It holds the last loaded tasks
// and derives the visible rows locally from the search, status and owner
// filters and the sort key.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	tasks       []model.Task
	filter      derive.TaskFilter
	sortKey     derive.SortKey
	now         func() time.Time
	searchMode  bool
	searchInput textinput.Model
	emptyText   string
	showOwner   bool
	title       string
	width       int
	height      int
}

// Option configures a Model.
type Option func(*Model)

// WithOwnerColumn shows the owner on each row, for admin lists.
func WithOwnerColumn() Option {
	return func(m *Model) { m.showOwner = true }
}

// WithClock overrides the clock used for overdue flags.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// WithTitle sets the list title.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// New creates a new task list model.
func New(k *keys.KeyMap, sortKey derive.SortKey, width, height int, opts ...Option) Model {
	m := Model{
		keys:      k,
		sortKey:   sortKey,
		now:       time.Now,
		emptyText: "No tasks yet.\n\nPress n to create one.",
		title:     "Tasks",
		width:     width,
		height:    height,
	}
	for _, opt := range opts {
		opt(&m)
	}

	l := list.New([]list.Item{}, ItemDelegate{showOwner: m.showOwner, now: m.now}, width, height-2)
	l.Title = m.title
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	m.list = l

	si := textinput.New()
	si.Placeholder = "search title, description, project, owner..."
	si.Prompt = "/ "
	si.Width = width - 4
	m.searchInput = si

	return m
}

// SetTasks replaces the loaded tasks and re-derives the visible rows.
func (m *Model) SetTasks(tasks []model.Task) tea.Cmd {
	m.tasks = tasks
	return m.refresh()
}

// Tasks returns the loaded tasks, unfiltered.
func (m Model) Tasks() []model.Task { return m.tasks }

// Visible returns the rows currently shown, filtered and sorted.
func (m Model) Visible() []model.Task {
	return derive.Sort(derive.Filter(m.tasks, m.filter), m.sortKey)
}

func (m *Model) refresh() tea.Cmd {
	visible := m.Visible()
	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
	}
	return m.list.SetItems(items)
}

// SortKey returns the active sort key.
func (m Model) SortKey() derive.SortKey { return m.sortKey }

// Filter returns the active filter.
func (m Model) Filter() derive.TaskFilter { return m.filter }

// SetOwnerFilter restricts rows to one owner; zero shows everyone.
func (m *Model) SetOwnerFilter(owner model.ID) tea.Cmd {
	m.filter.Owner = owner
	return m.refresh()
}

// ClearFilters drops the search, status and owner filters.
func (m *Model) ClearFilters() tea.Cmd {
	m.filter = derive.TaskFilter{}
	m.searchInput.Reset()
	return m.refresh()
}

// SelectedTask returns the focused row.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searchMode }

// SetEmptyText sets the guidance shown when nothing is loaded.
func (m *Model) SetEmptyText(s string) { m.emptyText = s }

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filter.Search != "" {
		parts = append(parts, "search: "+m.filter.Search)
	}
	if m.filter.Status != "" {
		parts = append(parts, "status: "+m.filter.Status.Label())
	}
	parts = append(parts, "sort: "+m.sortKey.Label())
	return strings.Join(parts, " | ")
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Search = strings.TrimSpace(m.searchInput.Value())
		return m, m.refresh()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Search = ""
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedTaskMsg{Task: task} }

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter.Search)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleStatus):
		i := 0
		for j, s := range statusCycle {
			if s == m.filter.Status {
				i = j
			}
		}
		m.filter.Status = statusCycle[(i+1)%len(statusCycle)]
		return m, m.refresh()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortKey = m.sortKey.Next()
		return m, m.refresh()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if len(m.tasks) > 0 {
		return style.Render("No matching tasks.\nTry adjusting your filters.")
	}
	return style.Render(m.emptyText)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
