package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

const userColumns = `id, email, username, first_name, last_name, password_hash, is_staff, is_superuser, date_joined`

// CreateUser inserts a new account. Generates a UUID if ID is empty.
func (s *SQLStore) CreateUser(ctx context.Context, u *UserRecord) error {
	if u.ID.IsZero() {
		u.ID = model.ID(uuid.New().String())
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	_, err := s.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.FirstName, u.LastName,
		u.PasswordHash, u.IsStaff, u.IsSuperuser, u.DateJoined,
	)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a single account.
func (s *SQLStore) GetUserByID(ctx context.Context, id model.ID) (*UserRecord, error) {
	var u UserRecord
	if err := s.get(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail retrieves an account by its (case-insensitive) email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	var u UserRecord
	err := s.get(ctx, &u, "SELECT "+userColumns+" FROM users WHERE LOWER(email) = ?", strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &u, nil
}

// UserExists reports which of email and username are already registered.
func (s *SQLStore) UserExists(ctx context.Context, email, username string) (bool, bool, error) {
	var emails, usernames int
	if err := s.get(ctx, &emails, "SELECT COUNT(*) FROM users WHERE LOWER(email) = ?", strings.ToLower(email)); err != nil {
		return false, false, fmt.Errorf("checking email: %w", err)
	}
	if err := s.get(ctx, &usernames, "SELECT COUNT(*) FROM users WHERE username = ?", username); err != nil {
		return false, false, fmt.Errorf("checking username: %w", err)
	}
	return emails > 0, usernames > 0, nil
}

// GetUsers lists accounts ordered by username. staff restricts the list to
// staff (true) or regular users (false); recent > 0 returns the newest
// accounts first, at most recent of them.
func (s *SQLStore) GetUsers(ctx context.Context, staff *bool, recent int) ([]model.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	var args []any
	if staff != nil {
		query += " WHERE is_staff = ?"
		args = append(args, *staff)
	}
	if recent > 0 {
		query += fmt.Sprintf(" ORDER BY date_joined DESC LIMIT %d", recent)
	} else {
		query += " ORDER BY username"
	}

	var records []UserRecord
	if err := s.selectAll(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	users := make([]model.User, len(records))
	for i, r := range records {
		users[i] = r.User()
	}
	return users, nil
}

// CountUsers counts accounts, optionally by staff flag.
func (s *SQLStore) CountUsers(ctx context.Context, staff *bool) (int, error) {
	query := "SELECT COUNT(*) FROM users"
	var args []any
	if staff != nil {
		query += " WHERE is_staff = ?"
		args = append(args, *staff)
	}
	var n int
	if err := s.get(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// IssueToken returns the user's token, creating one if none exists.
func (s *SQLStore) IssueToken(ctx context.Context, userID model.ID) (string, error) {
	var token string
	err := s.get(ctx, &token, "SELECT token FROM tokens WHERE user_id = ?", userID)
	if err == nil {
		return token, nil
	}
	if !isNotFound(err) {
		return "", fmt.Errorf("looking up token: %w", err)
	}

	token = strings.ReplaceAll(uuid.New().String(), "-", "")
	if _, err := s.exec(ctx,
		"INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// GetUserByToken resolves a token to its account.
func (s *SQLStore) GetUserByToken(ctx context.Context, token string) (*UserRecord, error) {
	var u UserRecord
	err := s.get(ctx, &u, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
			u.is_staff, u.is_superuser, u.date_joined
		FROM tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token = ?`, token)
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	return &u, nil
}

// DeleteToken removes the user's token. Deleting a missing token is not
// an error.
func (s *SQLStore) DeleteToken(ctx context.Context, userID model.ID) error {
	if _, err := s.exec(ctx, "DELETE FROM tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
