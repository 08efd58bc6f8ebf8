// Package confirm is a yes/no dialog shown before destructive actions.
package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ResultMsg is dispatched once the dialog closes. Subject is whatever was
// passed to Open.
type ResultMsg struct {
	Subject   any
	Confirmed bool
}

// Model wraps a single huh Confirm field.
type Model struct {
	form    *huh.Form
	answer  *bool
	subject any
	width   int
}

// Open builds a dialog asking title about subject.
func Open(title, description string, subject any, width int) (Model, tea.Cmd) {
	answer := new(bool)
	w := width - 4
	if w < 30 {
		w = 30
	}
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(answer),
		),
	).WithWidth(w)
	m := Model{form: f, answer: answer, subject: subject, width: width}
	return m, f.Init()
}

// Active reports whether the dialog is open.
func (m Model) Active() bool { return m.form != nil }

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		res := ResultMsg{Subject: m.subject, Confirmed: *m.answer}
		m.form = nil
		return m, func() tea.Msg { return res }
	case huh.StateAborted:
		res := ResultMsg{Subject: m.subject}
		m.form = nil
		return m, func() tea.Msg { return res }
	}
	return m, cmd
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}
