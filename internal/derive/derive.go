// Package derive computes read-only views over cached tasks and projects:
// overdue flags, stats, filtering and sorting. Nothing here touches the
// network or mutates its input.
package derive

import (
	"slices"
	"strings"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// IsOverdue reports whether t is unfinished and due strictly before the
// calendar date of now. Tasks without a due date are never overdue.
func IsOverdue(t model.Task, now time.Time) bool {
	if t.Status == model.StatusCompleted || t.DueDate.IsZero() {
		return false
	}
	return t.DueDate.Before(model.DateOf(now))
}

// Aggregate computes the stats for tasks in a single pass.
func Aggregate(tasks []model.Task, now time.Time) model.Stats {
	var s model.Stats
	for _, t := range tasks {
		s.Total++
		switch t.Status {
		case model.StatusTodo:
			s.Todo++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusCompleted:
			s.Completed++
		}
		if IsOverdue(t, now) {
			s.Overdue++
		}
	}
	return s
}

// TaskFilter holds the optional criteria applied by Filter. Zero fields
// match everything.
type TaskFilter struct {
	Owner   model.ID
	Project model.ID
	Status  model.Status
	Search  string
}

// Filter returns the tasks matching every set criterion, in input order.
// Search is a case-insensitive substring match over title, description,
// owner name and project name.
func Filter(tasks []model.Task, f TaskFilter) []model.Task {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !f.Owner.IsZero() && t.Owner != f.Owner {
			continue
		}
		if !f.Project.IsZero() && t.Project != f.Project {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if needle != "" && !containsFold(needle, t.Title, t.Description, t.OwnerName, t.ProjectName) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ProjectFilter holds the optional criteria applied by FilterProjects.
type ProjectFilter struct {
	Owner  model.ID
	Search string
}

// FilterProjects returns the projects matching every set criterion. Search
// covers name, description and owner name.
func FilterProjects(projects []model.Project, f ProjectFilter) []model.Project {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if !f.Owner.IsZero() && p.Owner != f.Owner {
			continue
		}
		if needle != "" && !containsFold(needle, p.Name, p.Description, p.OwnerName) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// SortKey selects the ordering applied by Sort.
type SortKey string

// Supported sort keys.
const (
	SortDueDate  SortKey = "due_date"
	SortPriority SortKey = "priority"
	SortStatus   SortKey = "status"
)

// SortKeys lists the keys in the order the UI cycles through them.
var SortKeys = []SortKey{SortDueDate, SortPriority, SortStatus}

// ParseSortKey returns the key named s, defaulting to SortDueDate.
func ParseSortKey(s string) SortKey {
	for _, k := range SortKeys {
		if string(k) == s {
			return k
		}
	}
	return SortDueDate
}

// Next returns the key after k in SortKeys.
func (k SortKey) Next() SortKey {
	i := slices.Index(SortKeys, k)
	return SortKeys[(i+1)%len(SortKeys)]
}

// Label is the human-readable name of k.
func (k SortKey) Label() string {
	switch k {
	case SortPriority:
		return "priority"
	case SortStatus:
		return "status"
	default:
		return "due date"
	}
}

// Sort returns a stably sorted copy of tasks. Due dates sort ascending with
// undated tasks last, priority sorts high to low and status follows the
// workflow order.
func Sort(tasks []model.Task, key SortKey) []model.Task {
	out := slices.Clone(tasks)
	var cmp func(a, b model.Task) int
	switch key {
	case SortPriority:
		cmp = func(a, b model.Task) int { return b.Priority.Rank() - a.Priority.Rank() }
	case SortStatus:
		cmp = func(a, b model.Task) int { return a.Status.Rank() - b.Status.Rank() }
	default:
		cmp = func(a, b model.Task) int {
			switch {
			case a.DueDate.IsZero() && b.DueDate.IsZero():
				return 0
			case a.DueDate.IsZero():
				return 1
			case b.DueDate.IsZero():
				return -1
			}
			return a.DueDate.Compare(b.DueDate)
		}
	}
	slices.SortStableFunc(out, cmp)
	return out
}
