package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

const projectSelect = `
	SELECT p.id, p.name, p.description, p.color, p.user_id, u.username AS user_name,
		p.created_at,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count
	FROM projects p JOIN users u ON u.id = p.user_id`

// CreateProject inserts a new project. Generates a UUID if ID is empty and
// fills in CreatedAt.
func (s *SQLStore) CreateProject(ctx context.Context, p *model.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if p.ID.IsZero() {
		p.ID = model.ID(uuid.New().String())
	}
	if p.Color == "" {
		p.Color = model.ColorBlue
	}
	now := time.Now().UTC()
	p.CreatedAt = now

	_, err := s.exec(ctx, `
		INSERT INTO projects (id, name, description, color, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Color, p.Owner, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

// UpdateProject writes every editable field of an existing project.
func (s *SQLStore) UpdateProject(ctx context.Context, p model.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	result, err := s.exec(ctx, `
		UPDATE projects SET
			name = ?, description = ?, color = ?, user_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Color, p.Owner, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", p.ID, err)
	}
	return mustAffect(result, "project", p.ID)
}

// DeleteProject removes a project together with its tasks.
func (s *SQLStore) DeleteProject(ctx context.Context, id model.ID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tasks WHERE project_id = ?"), id); err != nil {
		return fmt.Errorf("deleting tasks of project %s: %w", id, err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM projects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if err := mustAffect(result, "project", id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetProjectByID retrieves a single project with its task count.
func (s *SQLStore) GetProjectByID(ctx context.Context, id model.ID) (*model.Project, error) {
	var p model.Project
	if err := s.get(ctx, &p, projectSelect+" WHERE p.id = ?", id); err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	return &p, nil
}

// GetProjects lists projects ordered by name, or newest first when
// filter.Recent is set.
func (s *SQLStore) GetProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := projectSelect
	var args []any
	if !filter.Owner.IsZero() {
		query += " WHERE p.user_id = ?"
		args = append(args, filter.Owner)
	}
	if filter.Recent > 0 {
		query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT %d", filter.Recent)
	} else {
		query += " ORDER BY p.name, p.created_at"
	}

	projects := []model.Project{}
	if err := s.selectAll(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// ProjectNameTaken reports whether owner already has a project called
// name, ignoring the project exclude.
func (s *SQLStore) ProjectNameTaken(ctx context.Context, owner model.ID, name string, exclude model.ID) (bool, error) {
	var n int
	err := s.get(ctx, &n,
		"SELECT COUNT(*) FROM projects WHERE user_id = ? AND name = ? AND id <> ?",
		owner, name, exclude,
	)
	if err != nil {
		return false, fmt.Errorf("checking project name: %w", err)
	}
	return n > 0, nil
}

// CountProjects counts every project.
func (s *SQLStore) CountProjects(ctx context.Context) (int, error) {
	var n int
	if err := s.get(ctx, &n, "SELECT COUNT(*) FROM projects"); err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return n, nil
}
