package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

type taskRequest struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description"`
	DueDate     model.Date     `json:"due_date"`
	Priority    model.Priority `json:"priority"`
	Status      model.Status   `json:"status"`
	Project     model.ID       `json:"project" validate:"required"`
	User        model.ID       `json:"user"`
}

type taskPatch struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	DueDate     *model.Date     `json:"due_date"`
	Priority    *model.Priority `json:"priority"`
	Status      *model.Status   `json:"status"`
	Project     *model.ID       `json:"project"`
	User        *model.ID       `json:"user"`
}

// queryProject reads ?project=, treating "all" as no filter.
func queryProject(c *fiber.Ctx) model.ID {
	p := c.Query("project")
	if p == "all" {
		return ""
	}
	return model.ID(p)
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	tasks, err := s.store.GetTasks(c.UserContext(), store.TaskFilter{
		Owner:    caller(c).ID,
		Project:  queryProject(c),
		Status:   model.Status(c.Query("status")),
		Priority: model.Priority(c.Query("priority")),
		Search:   c.Query("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var req taskRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	req.User = caller(c).ID
	return s.insertTask(c, req)
}

func (s *Server) getTask(c *fiber.Ctx) error {
	t, err := s.ownTask(c)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	t, err := s.ownTask(c)
	if err != nil {
		return err
	}
	var patch taskPatch
	if err := s.parse(c, &patch); err != nil {
		return err
	}
	patch.User = nil
	return s.applyTaskPatch(c, *t, patch)
}

func (s *Server) dashboardStats(c *fiber.Ctx) error {
	stats, err := s.store.GetTaskStats(c.UserContext(), store.TaskFilter{
		Owner:   caller(c).ID,
		Project: queryProject(c),
	}, model.DateOf(s.now()))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (s *Server) ownTask(c *fiber.Ctx) (*model.Task, error) {
	t, err := s.store.GetTaskByID(c.UserContext(), model.ID(c.Params("id")))
	if err != nil {
		return nil, err
	}
	if t.Owner != caller(c).ID {
		return nil, errNotFound
	}
	return t, nil
}

func (s *Server) insertTask(c *fiber.Ctx, req taskRequest) error {
	ctx := c.UserContext()
	if req.DueDate.IsZero() {
		return invalid("Due date is required.")
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if req.Status == "" {
		req.Status = model.StatusTodo
	}
	if err := validPriority(&req.Priority); err != nil {
		return err
	}
	if err := validStatus(&req.Status); err != nil {
		return err
	}
	if err := s.checkAssignable(c, req.Project); err != nil {
		return err
	}

	t := &model.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
		Project:     req.Project,
		Owner:       req.User,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return err
	}
	created, err := s.store.GetTaskByID(ctx, t.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) applyTaskPatch(c *fiber.Ctx, t model.Task, patch taskPatch) error {
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
		if t.Title == "" {
			return invalid("Title is required.")
		}
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return invalid("Due date is required.")
		}
		t.DueDate = *patch.DueDate
	}
	if err := validPriority(patch.Priority); err != nil {
		return err
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if err := validStatus(patch.Status); err != nil {
		return err
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Project != nil && *patch.Project != t.Project {
		if err := s.checkAssignable(c, *patch.Project); err != nil {
			return err
		}
		t.Project = *patch.Project
	}
	if patch.User != nil && *patch.User != t.Owner {
		if err := s.userExists(c, *patch.User); err != nil {
			return err
		}
		t.Owner = *patch.User
	}

	ctx := c.UserContext()
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return err
	}
	updated, err := s.store.GetTaskByID(ctx, t.ID)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// checkAssignable rejects unknown projects, and projects owned by someone
// else unless the caller is staff.
func (s *Server) checkAssignable(c *fiber.Ctx, projectID model.ID) error {
	p, err := s.store.GetProjectByID(c.UserContext(), projectID)
	if errors.Is(err, store.ErrNotFound) {
		return invalid("Invalid project.")
	}
	if err != nil {
		return err
	}
	user := caller(c)
	if !user.IsStaff && p.Owner != user.ID {
		return invalid("You can only assign tasks to your own projects")
	}
	return nil
}
