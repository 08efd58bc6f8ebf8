package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// UserRecord is a stored account including its password hash.
type UserRecord struct {
	ID           model.ID  `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	IsStaff      bool      `db:"is_staff"`
	IsSuperuser  bool      `db:"is_superuser"`
	DateJoined   time.Time `db:"date_joined"`
}

// User returns the public view of the record. Name is "first last", or the
// username when both are empty.
func (u UserRecord) User() model.User {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	name = trimSpace(name)
	if name == "" {
		name = u.Username
	}
	return model.User{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Name:        name,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

// TaskFilter narrows task queries. Zero fields match everything.
type TaskFilter struct {
	Owner    model.ID
	Project  model.ID
	Status   model.Status
	Priority model.Priority
	Search   string // case-insensitive match on title and description
	Recent   int    // newest first, at most Recent rows
}

// ProjectFilter narrows project queries.
type ProjectFilter struct {
	Owner  model.ID
	Recent int
}

// Store is the persistence interface of the reference API server.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u *UserRecord) error
	GetUserByID(ctx context.Context, id model.ID) (*UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	UserExists(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	GetUsers(ctx context.Context, staff *bool, recent int) ([]model.User, error)
	CountUsers(ctx context.Context, staff *bool) (int, error)

	// === Tokens ===

	IssueToken(ctx context.Context, userID model.ID) (string, error)
	GetUserByToken(ctx context.Context, token string) (*UserRecord, error)
	DeleteToken(ctx context.Context, userID model.ID) error

	// === Projects ===

	CreateProject(ctx context.Context, p *model.Project) error
	UpdateProject(ctx context.Context, p model.Project) error
	DeleteProject(ctx context.Context, id model.ID) error
	GetProjectByID(ctx context.Context, id model.ID) (*model.Project, error)
	GetProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	ProjectNameTaken(ctx context.Context, owner model.ID, name string, exclude model.ID) (bool, error)
	CountProjects(ctx context.Context) (int, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t model.Task) error
	DeleteTask(ctx context.Context, id model.ID) error
	GetTaskByID(ctx context.Context, id model.ID) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskStats(ctx context.Context, filter TaskFilter, today model.Date) (model.Stats, error)

	Close() error
}
