// Package login renders the sign-in and sign-up screen.
package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/theme"
)

// LoginMsg asks the parent to sign in.
type LoginMsg struct {
	Email    string
	Password string
}

// SignupMsg asks the parent to create an account.
type SignupMsg struct {
	Name     string
	Email    string
	Password string
}

type mode string

const (
	modeLogin  mode = "login"
	modeSignup mode = "signup"
)

type formBindings struct {
	mode     mode
	name     string
	email    string
	password string
}

// Model is the sign-in screen.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	message string
	busy    bool
	width   int
	height  int
}

// New creates the sign-in screen.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{mode: modeLogin},
		width:  width,
		height: height,
	}
}

// Start shows a fresh form, keeping the email typed last time.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.busy = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Fail shows message and reopens the form.
func (m *Model) Fail(message string) tea.Cmd {
	m.message = message
	return m.Start()
}

// Reset clears the message and every field.
func (m *Model) Reset() {
	m.message = ""
	m.fb = &formBindings{mode: modeLogin}
}

// SetNotice shows an informational message above the form.
func (m *Model) SetNotice(message string) { m.message = message }

// Update handles messages for the sign-in screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		m.message = ""
		fb := *m.fb
		email := strings.TrimSpace(fb.email)
		if fb.mode == modeSignup {
			return m, func() tea.Msg {
				return SignupMsg{Name: strings.TrimSpace(fb.name), Email: email, Password: fb.password}
			}
		}
		return m, func() tea.Msg { return LoginMsg{Email: email, Password: fb.password} }
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

// View renders the sign-in screen.
func (m Model) View() string {
	parts := []string{theme.TitleStyle.Render("Taskboard")}
	if m.message != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.message))
	}
	switch {
	case m.busy:
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	case m.form != nil:
		parts = append(parts, m.form.View())
	}

	box := theme.BorderStyle.
		Padding(1, 2).
		Width(min(m.width-4, 60)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	isSignup := func() bool { return m.fb.mode == modeSignup }
	isLogin := func() bool { return m.fb.mode == modeLogin }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[mode]().
				Title("Welcome").
				Options(
					huh.NewOption("Sign in", modeLogin),
					huh.NewOption("Create an account", modeSignup),
				).
				Value(&m.fb.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(required("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(required("Password")),
		).WithHideFunc(isSignup),
		huh.NewGroup(
			huh.NewInput().
				Title("Full name").
				Placeholder("Ada Lovelace").
				Value(&m.fb.name).
				Validate(required("Full name")),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(required("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(required("Password")),
		).WithHideFunc(isLogin),
	).WithWidth(min(m.width-8, 56))
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", strings.ToLower(field))
		}
		return nil
	}
}
