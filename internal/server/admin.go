package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

const recentLimit = 5

func (s *Server) adminUsers(c *fiber.Ctx) error {
	users, err := s.store.GetUsers(c.UserContext(), nil, 0)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (s *Server) adminListProjects(c *fiber.Ctx) error {
	projects, err := s.store.GetProjects(c.UserContext(), store.ProjectFilter{Owner: model.ID(c.Query("user"))})
	if err != nil {
		return err
	}
	return c.JSON(projects)
}

func (s *Server) adminCreateProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	if req.User.IsZero() {
		return invalid("User is required.")
	}
	if err := s.userExists(c, req.User); err != nil {
		return err
	}
	return s.insertProject(c, req, req.User)
}

func (s *Server) adminGetProject(c *fiber.Ctx) error {
	p, err := s.store.GetProjectByID(c.UserContext(), model.ID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) adminUpdateProject(c *fiber.Ctx) error {
	p, err := s.store.GetProjectByID(c.UserContext(), model.ID(c.Params("id")))
	if err != nil {
		return err
	}
	var patch projectPatch
	if err := s.parse(c, &patch); err != nil {
		return err
	}
	return s.applyProjectPatch(c, *p, patch)
}

func (s *Server) adminDeleteProject(c *fiber.Ctx) error {
	if err := s.store.DeleteProject(c.UserContext(), model.ID(c.Params("id"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) adminListTasks(c *fiber.Ctx) error {
	tasks, err := s.store.GetTasks(c.UserContext(), store.TaskFilter{
		Owner:   model.ID(c.Query("user")),
		Project: model.ID(c.Query("project")),
		Status:  model.Status(c.Query("status")),
		Search:  c.Query("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

func (s *Server) adminCreateTask(c *fiber.Ctx) error {
	var req taskRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	if req.User.IsZero() {
		return invalid("User is required.")
	}
	if err := s.userExists(c, req.User); err != nil {
		return err
	}
	return s.insertTask(c, req)
}

func (s *Server) adminGetTask(c *fiber.Ctx) error {
	t, err := s.store.GetTaskByID(c.UserContext(), model.ID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (s *Server) adminUpdateTask(c *fiber.Ctx) error {
	t, err := s.store.GetTaskByID(c.UserContext(), model.ID(c.Params("id")))
	if err != nil {
		return err
	}
	var patch taskPatch
	if err := s.parse(c, &patch); err != nil {
		return err
	}
	return s.applyTaskPatch(c, *t, patch)
}

func (s *Server) adminDeleteTask(c *fiber.Ctx) error {
	if err := s.store.DeleteTask(c.UserContext(), model.ID(c.Params("id"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) adminStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	nonStaff := false

	var out model.AdminStats
	var err error
	if out.TotalUsers, err = s.store.CountUsers(ctx, &nonStaff); err != nil {
		return err
	}
	if out.TotalProjects, err = s.store.CountProjects(ctx); err != nil {
		return err
	}
	if out.Stats, err = s.store.GetTaskStats(ctx, store.TaskFilter{}, model.DateOf(s.now())); err != nil {
		return err
	}
	if out.RecentUsers, err = s.store.GetUsers(ctx, &nonStaff, recentLimit); err != nil {
		return err
	}
	if out.RecentProjects, err = s.store.GetProjects(ctx, store.ProjectFilter{Recent: recentLimit}); err != nil {
		return err
	}
	if out.RecentTasks, err = s.store.GetTasks(ctx, store.TaskFilter{Recent: recentLimit}); err != nil {
		return err
	}
	return c.JSON(out)
}
