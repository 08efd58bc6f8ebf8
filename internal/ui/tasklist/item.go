package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		i.Task.ProjectName,
		i.Task.Status.Label(),
		dueLabel(i.Task.DueDate, time.Now()),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct {
	showOwner bool
	now       func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := ti.Task
	now := d.now()

	prefix := "○"
	switch t.Status {
	case model.StatusCompleted:
		prefix = "✓"
	case model.StatusInProgress:
		prefix = "◐"
	}

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status.Label())
	priBadge := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	project := ""
	if t.ProjectName != "" {
		project = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render(" [" + t.ProjectName + "]")
	}

	owner := ""
	if d.showOwner && t.OwnerName != "" {
		owner = lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(" @" + t.OwnerName)
	}

	due := ""
	if !t.DueDate.IsZero() {
		due = theme.DueDateStyle.Render(" " + dueLabel(t.DueDate, now))
	}

	overdue := ""
	if derive.IsOverdue(t, now) {
		overdue = theme.OverdueStyle.Render(" OVERDUE")
	}

	line := fmt.Sprintf(
		"%s %s %s %s%s%s%s%s",
		prefix, priBadge, statusBadge, t.Title,
		project, owner, due, overdue,
	)

	if t.Status == model.StatusCompleted {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// dueLabel describes d relative to the calendar date of now.
func dueLabel(d model.Date, now time.Time) string {
	if d.IsZero() {
		return "no due date"
	}
	days := int(d.Time().Sub(model.DateOf(now).Time()).Hours() / 24)
	switch {
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	case days == -1:
		return "due yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("due in %dd", days)
	case days < -1 && days > -7:
		return fmt.Sprintf("due %dd ago", -days)
	default:
		return "due " + d.Format("Jan 02")
	}
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "H"
	case model.PriorityMedium:
		return "M"
	case model.PriorityLow:
		return "L"
	default:
		return "?"
	}
}
