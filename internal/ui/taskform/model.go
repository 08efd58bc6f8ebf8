package taskform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/form"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// SubmittedMsg is dispatched when the user completes the form. The owner
// is only set on admin forms.
type SubmittedMsg struct {
	Draft form.AdminTaskDraft
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	dueDate     string
	priority    model.Priority
	status      model.Status
	project     model.ID
	owner       model.ID
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	editMode   bool
	admin      bool
	refs       form.Refs
	message    string
	submitting bool
	width      int
	height     int
}

// New creates a new task form. Admin forms also pick the owner.
func New(admin bool, width, height int) Model {
	return Model{
		fb:     &formBindings{},
		admin:  admin,
		width:  width,
		height: height,
	}
}

// Start opens the form seeded with draft. refs supplies the project and
// user options.
func (m *Model) Start(draft form.AdminTaskDraft, edit bool, refs form.Refs) tea.Cmd {
	m.editMode = edit
	m.refs = refs
	m.message = ""
	m.submitting = false

	m.fb.title = draft.Title
	m.fb.description = draft.Description
	m.fb.dueDate = ""
	if !draft.DueDate.IsZero() {
		m.fb.dueDate = draft.DueDate.String()
	}
	m.fb.priority = draft.Priority
	m.fb.status = draft.Status
	m.fb.project = draft.Project
	m.fb.owner = draft.Owner

	m.form = m.buildForm()
	return m.form.Init()
}

// Reopen shows message and lets the user edit the same values again.
func (m *Model) Reopen(message string) tea.Cmd {
	m.message = message
	m.submitting = false
	m.form = m.buildForm()
	return m.form.Init()
}

// SetSubmitting marks the form as waiting for the server.
func (m *Model) SetSubmitting(v bool) { m.submitting = v }

// Draft returns the values currently entered.
func (m Model) Draft() form.AdminTaskDraft {
	due, _ := model.ParseDate(strings.TrimSpace(m.fb.dueDate))
	return form.AdminTaskDraft{
		TaskDraft: form.TaskDraft{
			Title:       m.fb.title,
			Description: m.fb.description,
			DueDate:     due,
			Priority:    m.fb.priority,
			Status:      m.fb.status,
			Project:     m.fb.project,
		},
		Owner: m.fb.owner,
	}
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.submitting {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		draft := m.Draft()
		m.submitting = true
		return m, func() tea.Msg { return SubmittedMsg{Draft: draft} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
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

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.dueDate).
			Validate(validateDate),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(priorityOptions()...).
			Value(&m.fb.priority),
		huh.NewSelect[model.Status]().
			Title("Status").
			Options(statusOptions()...).
			Value(&m.fb.status),
		m.projectField(),
	}
	if m.admin {
		fields = append(fields, m.ownerField())
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func priorityOptions() []huh.Option[model.Priority] {
	opts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		opts[i] = huh.NewOption(p.Label(), p)
	}
	return opts
}

func statusOptions() []huh.Option[model.Status] {
	opts := make([]huh.Option[model.Status], len(model.Statuses))
	for i, s := range model.Statuses {
		opts[i] = huh.NewOption(s.Label(), s)
	}
	return opts
}

func (m *Model) projectField() huh.Field {
	opts := make([]huh.Option[model.ID], 0, len(m.refs.Projects))
	for _, p := range m.refs.Projects {
		label := p.Name
		if m.admin && p.OwnerName != "" {
			label = fmt.Sprintf("%s (%s)", p.Name, p.OwnerName)
		}
		opts = append(opts, huh.NewOption(label, p.ID))
	}
	if len(opts) == 0 {
		opts = append(opts, huh.NewOption("No projects: create one first", model.ID("")))
	}
	return huh.NewSelect[model.ID]().
		Title("Project").
		Options(opts...).
		Value(&m.fb.project)
}

func (m *Model) ownerField() huh.Field {
	opts := make([]huh.Option[model.ID], 0, len(m.refs.Users))
	for _, u := range m.refs.Users {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s <%s>", u.DisplayName(), u.Email), u.ID))
	}
	if len(opts) == 0 {
		opts = append(opts, huh.NewOption("No users", model.ID("")))
	}
	return huh.NewSelect[model.ID]().
		Title("User").
		Options(opts...).
		Value(&m.fb.owner)
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("due date is required")
	}
	if _, err := model.ParseDate(s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
