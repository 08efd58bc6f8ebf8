package api

import (
	"context"

	"github.com/nhle/taskboard/internal/model"
)

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest is the email/password login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	Message string     `json:"message,omitempty"`
}

// Register creates an account and returns its identity and credential.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, "/auth/register/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, "/auth/login/", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the current credential on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout/", struct{}{}, nil)
}

// CurrentUser returns the identity behind the persisted credential.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.get(ctx, "/auth/user/", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
