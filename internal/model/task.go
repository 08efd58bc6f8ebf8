package model

import "time"

// Priority is the urgency level of a task.
type Priority string

// Priority values accepted by the API.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from highest to lowest.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities for sorting: high=3, medium=2, low=1, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool { return p.Rank() > 0 }

// Label returns the human-readable priority name.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return string(p)
	}
}

// Status is the workflow state of a task.
type Status string

// Status values accepted by the API.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// Rank orders statuses for sorting: todo=1, in-progress=2, completed=3.
func (s Status) Rank() int {
	switch s {
	case StatusTodo:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 4
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool { return s.Rank() < 4 }

// Label returns the human-readable status name.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// Task is a unit of work belonging to a project. Whether it is overdue is
// derived at query time and not stored.
type Task struct {
	ID          ID        `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     Date      `json:"due_date" db:"due_date"`
	Priority    Priority  `json:"priority" db:"priority"`
	Status      Status    `json:"status" db:"status"`
	Project     ID        `json:"project" db:"project_id"`
	ProjectName string    `json:"project_name" db:"project_name"`
	Owner       ID        `json:"user" db:"user_id"`
	OwnerName   string    `json:"user_name" db:"user_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Stats is the per-status breakdown of a task set.
type Stats struct {
	Total      int `json:"total_tasks"`
	Todo       int `json:"todo_tasks"`
	InProgress int `json:"in_progress_tasks"`
	Completed  int `json:"completed_tasks"`
	Overdue    int `json:"overdue_tasks"`
}

// AdminStats is the system-wide breakdown shown on the admin dashboard.
type AdminStats struct {
	Stats
	TotalUsers     int       `json:"total_users"`
	TotalProjects  int       `json:"total_projects"`
	RecentUsers    []User    `json:"recent_users,omitempty"`
	RecentProjects []Project `json:"recent_projects,omitempty"`
	RecentTasks    []Task    `json:"recent_tasks,omitempty"`
}
