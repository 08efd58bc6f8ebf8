// Package server is a reference implementation of the task API consumed
// by the client. It is used for local development and end-to-end tests.
package server

import (
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskboard/internal/store"
)

// Server wires the HTTP routes to a Store.
type Server struct {
	store    store.Store
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	hashCost int
	app      *fiber.App
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the clock used for overdue calculations.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithHashCost sets the bcrypt cost for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Server) { s.hashCost = cost }
}

// New builds a server with every route registered.
func New(st store.Store, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    st,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "taskboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.recoverAndLog)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	s.registerRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	// Auth
	api.Post("/auth/register", s.register)
	api.Post("/auth/login", s.login)
	api.Post("/auth/logout", s.requireToken, s.logout)
	api.Get("/auth/user", s.requireToken, s.currentUser)

	// Projects
	projects := api.Group("/projects", s.requireToken)
	projects.Get("/", s.listProjects)
	projects.Post("/", s.createProject)
	projects.Get("/:id", s.getProject)
	projects.Patch("/:id", s.updateProject)
	projects.Put("/:id", s.updateProject)
	projects.Delete("/:id", s.deleteProject)

	// Tasks; personal tasks cannot be deleted.
	tasks := api.Group("/tasks", s.requireToken)
	tasks.Get("/", s.listTasks)
	tasks.Post("/", s.createTask)
	tasks.Get("/:id", s.getTask)
	tasks.Patch("/:id", s.updateTask)
	tasks.Put("/:id", s.updateTask)

	api.Get("/dashboard/stats", s.requireToken, s.dashboardStats)

	// Admin
	admin := api.Group("/admin", s.requireToken, s.requireStaff)
	admin.Get("/users", s.adminUsers)
	admin.Get("/projects", s.adminListProjects)
	admin.Post("/projects", s.adminCreateProject)
	admin.Get("/projects/:id", s.adminGetProject)
	admin.Patch("/projects/:id", s.adminUpdateProject)
	admin.Put("/projects/:id", s.adminUpdateProject)
	admin.Delete("/projects/:id", s.adminDeleteProject)
	admin.Get("/tasks", s.adminListTasks)
	admin.Post("/tasks", s.adminCreateTask)
	admin.Get("/tasks/:id", s.adminGetTask)
	admin.Patch("/tasks/:id", s.adminUpdateTask)
	admin.Put("/tasks/:id", s.adminUpdateTask)
	admin.Delete("/tasks/:id", s.adminDeleteTask)
	admin.Get("/dashboard/stats", s.adminStats)
}

// badRequest is a client error reported as {"message": ...}.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

var errNotFound = fiber.NewError(fiber.StatusNotFound, "Not found.")

// handleError maps handler errors onto the three error body shapes the
// client understands: message for validation, detail for auth and lookup,
// error for anything unexpected.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var br *badRequest
	if errors.As(err, &br) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": br.msg})
	}
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"detail": fe.Message})
	}

	s.logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("url", c.OriginalURL()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) recoverAndLog(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered from panic",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	start := time.Now()
	err = c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("url", c.OriginalURL()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}
