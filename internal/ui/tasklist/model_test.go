package tasklist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
)

func fixedNow() time.Time { return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC) }

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Write report", DueDate: model.MustDate("2024-06-12"), Priority: model.PriorityLow, Status: model.StatusTodo, Owner: "a"},
		{ID: "2", Title: "Fix login", DueDate: model.MustDate("2024-06-08"), Priority: model.PriorityHigh, Status: model.StatusInProgress, Owner: "b"},
		{ID: "3", Title: "Plan offsite", Priority: model.PriorityMedium, Status: model.StatusCompleted, Owner: "a"},
	}
}

func newList(t *testing.T) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), derive.SortDueDate, 80, 20, WithClock(fixedNow))
	m.SetTasks(sampleTasks())
	return m
}

func ids(tasks []model.Task) []model.ID {
	out := make([]model.ID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func press(m Model, s string) Model {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	m, _ = m.Update(msg)
	return m
}

func TestVisibleSortsByDueDateWithUndatedLast(t *testing.T) {
	m := newList(t)
	assert.Equal(t, []model.ID{"2", "1", "3"}, ids(m.Visible()))

	selected, ok := m.SelectedTask()
	require.True(t, ok)
	assert.Equal(t, model.ID("2"), selected.ID)
}

func TestCycleSort(t *testing.T) {
	m := press(newList(t), "tab")
	assert.Equal(t, derive.SortPriority, m.SortKey())
	assert.Equal(t, []model.ID{"2", "3", "1"}, ids(m.Visible()))

	m = press(m, "tab")
	assert.Equal(t, derive.SortStatus, m.SortKey())
	assert.Equal(t, []model.ID{"1", "2", "3"}, ids(m.Visible()))
}

func TestCycleStatusFilter(t *testing.T) {
	m := press(newList(t), "s")
	assert.Equal(t, model.StatusTodo, m.Filter().Status)
	assert.Equal(t, []model.ID{"1"}, ids(m.Visible()))
	assert.Contains(t, m.FilterSummary(), "status: To Do")

	for range 3 {
		m = press(m, "s")
	}
	assert.Empty(t, m.Filter().Status)
	assert.Len(t, m.Visible(), 3)
}

func TestSearchAppliesOnEnterAndClearsOnEsc(t *testing.T) {
	m := press(newList(t), "/")
	require.True(t, m.Searching())

	m = press(m, "LOGIN")
	m = press(m, "enter")
	assert.False(t, m.Searching())
	assert.Equal(t, []model.ID{"2"}, ids(m.Visible()))
	assert.Contains(t, m.FilterSummary(), "search: LOGIN")

	m = press(m, "/")
	m = press(m, "esc")
	assert.Len(t, m.Visible(), 3)
}

func TestOwnerFilterAndClear(t *testing.T) {
	m := newList(t)
	m.SetOwnerFilter("a")
	assert.Equal(t, []model.ID{"1", "3"}, ids(m.Visible()))

	m = press(m, "s")
	m.ClearFilters()
	assert.Len(t, m.Visible(), 3)
	assert.Equal(t, derive.TaskFilter{}, m.Filter())
}

func TestEmptyStates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), derive.SortDueDate, 80, 20)
	m.SetEmptyText("Nothing here")
	assert.Contains(t, m.View(), "Nothing here")

	m.SetTasks(sampleTasks())
	m.SetOwnerFilter("nobody")
	assert.Contains(t, m.View(), "No matching tasks.")
}

func TestSelectEmitsSelectedTask(t *testing.T) {
	m := newList(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(SelectedTaskMsg)
	require.True(t, ok)
	assert.Equal(t, model.ID("2"), msg.Task.ID)
}

func TestDueLabel(t *testing.T) {
	now := fixedNow()
	assert.Equal(t, "no due date", dueLabel(model.Date{}, now))
	assert.Equal(t, "due today", dueLabel(model.MustDate("2024-06-10"), now))
	assert.Equal(t, "due tomorrow", dueLabel(model.MustDate("2024-06-11"), now))
	assert.Equal(t, "due yesterday", dueLabel(model.MustDate("2024-06-09"), now))
	assert.Equal(t, "due in 3d", dueLabel(model.MustDate("2024-06-13"), now))
	assert.Equal(t, "due 2d ago", dueLabel(model.MustDate("2024-06-08"), now))
	assert.Equal(t, "due Jul 01", dueLabel(model.MustDate("2024-07-01"), now))
}
