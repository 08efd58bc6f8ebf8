package server

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

const userKey = "user"

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	Message string     `json:"message"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	if req.Password != req.PasswordConfirm {
		return invalid("Passwords don't match")
	}
	if strings.TrimSpace(req.Username) == "" {
		req.Username = req.Email
	}

	ctx := c.UserContext()
	emailTaken, usernameTaken, err := s.store.UserExists(ctx, req.Email, req.Username)
	if err != nil {
		return err
	}
	if emailTaken {
		return invalid("A user with this email already exists.")
	}
	if usernameTaken {
		return invalid("A user with this username already exists.")
	}

	user, err := s.createAccount(ctx, req.Email, req.Username, req.FirstName, req.LastName, req.Password, false)
	if err != nil {
		return err
	}

	personal := &model.Project{
		Name:        "Personal",
		Description: "Personal tasks",
		Color:       model.ColorBlue,
		Owner:       user.ID,
	}
	if err := s.store.CreateProject(ctx, personal); err != nil {
		return err
	}

	token, err := s.store.IssueToken(ctx, user.ID)
	if err != nil {
		return err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return c.Status(fiber.StatusCreated).JSON(authResponse{
		User:    user.User(),
		Token:   token,
		Message: "User registered successfully",
	})
}

// createAccount hashes password and stores a new user.
func (s *Server) createAccount(
	ctx context.Context,
	email, username, first, last, password string,
	staff bool,
) (*store.UserRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}
	user := &store.UserRecord{
		Email:        email,
		Username:     username,
		FirstName:    first,
		LastName:     last,
		PasswordHash: string(hash),
		IsStaff:      staff,
		IsSuperuser:  staff,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return invalid("Invalid credentials")
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn("failed login", zap.String("user_id", user.ID.String()))
		return invalid("Invalid credentials")
	}

	token, err := s.store.IssueToken(ctx, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(authResponse{User: user.User(), Token: token, Message: "Login successful"})
}

func (s *Server) logout(c *fiber.Ctx) error {
	user := caller(c)
	if err := s.store.DeleteToken(c.UserContext(), user.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Successfully logged out"})
}

func (s *Server) currentUser(c *fiber.Ctx) error {
	return c.JSON(caller(c).User())
}

// requireToken resolves "Authorization: Token <key>" to a user.
func (s *Server) requireToken(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Token" || token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token header.")
	}
	user, err := s.store.GetUserByToken(c.UserContext(), token)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token.")
	}
	if err != nil {
		return err
	}
	c.Locals(userKey, user)
	return c.Next()
}

func (s *Server) requireStaff(c *fiber.Ctx) error {
	if !caller(c).IsStaff {
		return fiber.NewError(fiber.StatusForbidden, "You do not have permission to perform this action.")
	}
	return c.Next()
}

func caller(c *fiber.Ctx) *store.UserRecord {
	user, _ := c.Locals(userKey).(*store.UserRecord)
	return user
}

// CreateStaff creates an administrator account. It backs the server's
// bootstrap flag and test fixtures.
func (s *Server) CreateStaff(ctx context.Context, email, password, first, last string) (model.User, error) {
	user, err := s.createAccount(ctx, email, email, first, last, password, true)
	if err != nil {
		return model.User{}, err
	}
	return user.User(), nil
}
