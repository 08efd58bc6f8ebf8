package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

const taskSelect = `
	SELECT t.id, t.title, t.description, t.due_date, t.priority, t.status,
		t.project_id, p.name AS project_name, t.user_id, u.username AS user_name,
		t.created_at, t.updated_at
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	JOIN users u ON u.id = t.user_id`

// CreateTask inserts a new task. Generates a UUID if ID is empty and
// applies the priority and status defaults.
func (s *SQLStore) CreateTask(ctx context.Context, t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if t.ID.IsZero() {
		t.ID = model.ID(uuid.New().String())
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.exec(ctx, `
		INSERT INTO tasks (
			id, title, description, due_date, priority, status,
			project_id, user_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.DueDate, t.Priority, t.Status,
		t.Project, t.Owner, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// UpdateTask writes every editable field of an existing task.
func (s *SQLStore) UpdateTask(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	result, err := s.exec(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, due_date = ?, priority = ?, status = ?,
			project_id = ?, user_id = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, t.DueDate, t.Priority, t.Status,
		t.Project, t.Owner, time.Now().UTC(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	return mustAffect(result, "task", t.ID)
}

// DeleteTask removes a task.
func (s *SQLStore) DeleteTask(ctx context.Context, id model.ID) error {
	result, err := s.exec(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return mustAffect(result, "task", id)
}

// GetTaskByID retrieves a single task with its project and owner names.
func (s *SQLStore) GetTaskByID(ctx context.Context, id model.ID) (*model.Task, error) {
	var t model.Task
	if err := s.get(ctx, &t, taskSelect+" WHERE t.id = ?", id); err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &t, nil
}

// GetTasks lists tasks matching filter, ordered by due date then priority,
// or newest first when filter.Recent is set.
func (s *SQLStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	where, args := buildTaskWhere(filter)
	query := taskSelect + where
	if filter.Recent > 0 {
		query += fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT %d", filter.Recent)
	} else {
		query += ` ORDER BY t.due_date,
			CASE t.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
			t.created_at`
	}

	tasks := []model.Task{}
	if err := s.selectAll(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskStats counts the tasks matching filter by status. A task is
// overdue when it is due before today and not completed.
func (s *SQLStore) GetTaskStats(ctx context.Context, filter TaskFilter, today model.Date) (model.Stats, error) {
	where, args := buildTaskWhere(filter)
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN t.status = 'todo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.status = 'in-progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.due_date < ? AND t.status IN ('todo', 'in-progress') THEN 1 ELSE 0 END), 0)
		FROM tasks t` + where

	var st model.Stats
	row := s.db.QueryRowxContext(ctx, s.db.Rebind(query), append([]any{today}, args...)...)
	if err := row.Scan(&st.Total, &st.Todo, &st.InProgress, &st.Completed, &st.Overdue); err != nil {
		return model.Stats{}, fmt.Errorf("computing task stats: %w", err)
	}
	return st, nil
}

// buildTaskWhere constructs the WHERE clause and args for a TaskFilter.
func buildTaskWhere(filter TaskFilter) (string, []any) {
	var conditions []string
	var args []any

	if !filter.Owner.IsZero() {
		conditions = append(conditions, "t.user_id = ?")
		args = append(args, filter.Owner)
	}
	if !filter.Project.IsZero() {
		conditions = append(conditions, "t.project_id = ?")
		args = append(args, filter.Project)
	}
	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		conditions = append(conditions, "t.priority = ?")
		args = append(args, filter.Priority)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions, "(LOWER(t.title) LIKE ? OR LOWER(t.description) LIKE ?)")
		p := likePattern(q)
		args = append(args, p, p)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
