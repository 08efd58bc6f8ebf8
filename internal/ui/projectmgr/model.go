package projectmgr

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/form"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui/confirm"
)

// CloseMsg signals the parent to close the project view.
type CloseMsg struct{}

// OpenFormMsg asks the parent to open the form, for project when editing
// and nil when creating.
type OpenFormMsg struct {
	Project *model.Project
}

// SubmittedMsg carries a completed form. The owner is only set in admin
// mode.
type SubmittedMsg struct {
	Draft form.AdminProjectDraft
}

// DeleteMsg is dispatched after the user confirmed deleting Project.
type DeleteMsg struct {
	Project model.Project
}

// FocusMsg asks the parent to filter the dashboard to Project.
type FocusMsg struct {
	Project model.Project
}

type projectMode int

const (
	modeList projectMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	color       model.Color
	owner       model.ID
}

// Model is the Bubble Tea model for project management. In admin mode it
// lists every user's projects and the form picks an owner.
type Model struct {
	mode        projectMode
	admin       bool
	keys        *keys.KeyMap
	projects    []model.Project
	users       []model.User
	filter      derive.ProjectFilter
	selectedIdx int
	editMode    bool
	form        *huh.Form
	confirm     confirm.Model
	fb          *formBindings
	message     string
	submitting  bool
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new project manager model.
func New(k *keys.KeyMap, admin bool, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search name, description, owner..."
	si.Prompt = "/ "
	return Model{
		mode:        modeList,
		admin:       admin,
		keys:        k,
		fb:          &formBindings{},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetProjects replaces the listed projects and the owner options.
func (m *Model) SetProjects(projects []model.Project, users []model.User) {
	m.projects = projects
	m.users = users
	if n := len(m.visible()); m.selectedIdx >= n {
		m.selectedIdx = max(n-1, 0)
	}
}

// SetOwnerFilter restricts the list to one owner; zero shows everyone.
func (m *Model) SetOwnerFilter(owner model.ID) {
	m.filter.Owner = owner
	m.selectedIdx = 0
}

// Filter returns the active filter.
func (m Model) Filter() derive.ProjectFilter { return m.filter }

// Editing reports whether the form or confirmation dialog is open.
func (m Model) Editing() bool { return m.mode != modeList || m.searchMode }

// StartForm opens the form seeded with draft.
func (m *Model) StartForm(draft form.AdminProjectDraft, edit bool) tea.Cmd {
	m.editMode = edit
	m.message = ""
	m.submitting = false
	m.fb.name = draft.Name
	m.fb.description = draft.Description
	m.fb.color = draft.Color
	m.fb.owner = draft.Owner
	m.form = m.buildForm()
	m.mode = modeForm
	return m.form.Init()
}

// Reopen shows message on the form and lets the user edit again.
func (m *Model) Reopen(message string) tea.Cmd {
	m.message = message
	m.submitting = false
	m.form = m.buildForm()
	m.mode = modeForm
	return m.form.Init()
}

// CloseForm returns to the list.
func (m *Model) CloseForm() {
	m.mode = modeList
	m.submitting = false
	m.form = nil
}

func (m Model) visible() []model.Project {
	return derive.FilterProjects(m.projects, m.filter)
}

func (m Model) selected() (model.Project, bool) {
	v := m.visible()
	if m.selectedIdx < 0 || m.selectedIdx >= len(v) {
		return model.Project{}, false
	}
	return v[m.selectedIdx], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case confirm.ResultMsg:
		m.mode = modeList
		p, ok := msg.Subject.(model.Project)
		if !msg.Confirmed || !ok {
			return m, nil
		}
		return m, func() tea.Msg { return DeleteMsg{Project: p} }

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			if m.searchMode {
				return m.handleSearchKey(msg)
			}
			return m.handleListKey(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Search = strings.TrimSpace(m.searchInput.Value())
		m.selectedIdx = 0
		return m, nil
	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Search = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	n := len(m.visible())
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.admin {
			return m, nil
		}
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = n - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter.Search)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Select):
		p, ok := m.selected()
		if !ok || m.admin {
			return m, nil
		}
		return m, func() tea.Msg { return FocusMsg{Project: p} }

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return OpenFormMsg{} }

	case key.Matches(msg, m.keys.Edit):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return OpenFormMsg{Project: &p} }

	case key.Matches(msg, m.keys.Delete):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		var cmd tea.Cmd
		m.confirm, cmd = confirm.Open(
			fmt.Sprintf("Delete project %q?", p.Name),
			fmt.Sprintf("Its %d task(s) will be deleted too.", p.TaskCount),
			p, m.width,
		)
		m.mode = modeConfirmDelete
		return m, cmd
	}
	return m, nil
}

func (m *Model) buildForm() *huh.Form {
	colorOpts := make([]huh.Option[model.Color], len(model.Colors))
	for i, c := range model.Colors {
		colorOpts[i] = huh.NewOption(theme.ProjectBadge(string(c), c), c)
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Name").
			Placeholder("Project name").
			Value(&m.fb.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
		huh.NewText().
			Title("Description").
			Placeholder("Optional description").
			Value(&m.fb.description),
		huh.NewSelect[model.Color]().
			Title("Color").
			Options(colorOpts...).
			Value(&m.fb.color),
	}

	if m.admin {
		userOpts := make([]huh.Option[model.ID], 0, len(m.users))
		for _, u := range m.users {
			userOpts = append(userOpts, huh.NewOption(fmt.Sprintf("%s <%s>", u.DisplayName(), u.Email), u.ID))
		}
		if len(userOpts) == 0 {
			userOpts = append(userOpts, huh.NewOption("No users", model.ID("")))
		}
		fields = append(fields, huh.NewSelect[model.ID]().
			Title("User").
			Options(userOpts...).
			Value(&m.fb.owner))
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.submitting {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.submitting = true
		draft := form.AdminProjectDraft{
			ProjectDraft: form.ProjectDraft{
				Name:        m.fb.name,
				Description: m.fb.description,
				Color:       m.fb.color,
			},
			Owner: m.fb.owner,
		}
		return m, func() tea.Msg { return SubmittedMsg{Draft: draft} }
	}
	if m.form.State == huh.StateAborted {
		m.CloseForm()
		return m, nil
	}
	return m, cmd
}

// View renders the project manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm()
	case modeConfirmDelete:
		return m.confirm.View()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	title := "Projects"
	if m.admin {
		title = "All Projects"
	}
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")

	if m.searchMode {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	} else if m.filter.Search != "" {
		b.WriteString(theme.HelpStyle.Render("search: " + m.filter.Search))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	visible := m.visible()
	if len(visible) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		if len(m.projects) == 0 {
			b.WriteString(emptyStyle.Render("No projects yet. Press 'n' to create one."))
		} else {
			b.WriteString(emptyStyle.Render("No matching projects."))
		}
	} else {
		for i, p := range visible {
			label := fmt.Sprintf("%s  %d task(s)", theme.ProjectBadge(p.Name, p.Color), p.TaskCount)
			if m.admin {
				label += lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render("  @" + p.OwnerName)
			}
			if p.Description != "" {
				label += theme.HelpStyle.Render("  " + p.Description)
			}

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	hints := "n new | e edit | d delete | / search | enter focus | esc back"
	if m.admin {
		hints = "n new | e edit | d delete | / search | u owner filter"
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(hints))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}
	titleText := "New Project"
	if m.editMode {
		titleText = "Edit Project"
	}
	parts := []string{theme.TitleStyle.Render(titleText)}
	if m.message != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.message))
	}
	if m.submitting {
		parts = append(parts, theme.HelpStyle.Render("Saving..."))
	} else {
		parts = append(parts, m.form.View())
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 8
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}
