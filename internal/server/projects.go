package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

type projectRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Description string      `json:"description"`
	Color       model.Color `json:"color"`
	User        model.ID    `json:"user"`
}

type projectPatch struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Color       *model.Color `json:"color"`
	User        *model.ID    `json:"user"`
}

func (s *Server) listProjects(c *fiber.Ctx) error {
	projects, err := s.store.GetProjects(c.UserContext(), store.ProjectFilter{Owner: caller(c).ID})
	if err != nil {
		return err
	}
	return c.JSON(projects)
}

func (s *Server) createProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	return s.insertProject(c, req, caller(c).ID)
}

func (s *Server) getProject(c *fiber.Ctx) error {
	p, err := s.ownProject(c)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) updateProject(c *fiber.Ctx) error {
	p, err := s.ownProject(c)
	if err != nil {
		return err
	}
	var patch projectPatch
	if err := s.parse(c, &patch); err != nil {
		return err
	}
	patch.User = nil
	return s.applyProjectPatch(c, *p, patch)
}

func (s *Server) deleteProject(c *fiber.Ctx) error {
	p, err := s.ownProject(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(c.UserContext(), p.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ownProject loads the :id project and hides it unless the caller owns it.
func (s *Server) ownProject(c *fiber.Ctx) (*model.Project, error) {
	p, err := s.store.GetProjectByID(c.UserContext(), model.ID(c.Params("id")))
	if err != nil {
		return nil, err
	}
	if p.Owner != caller(c).ID {
		return nil, errNotFound
	}
	return p, nil
}

func (s *Server) insertProject(c *fiber.Ctx, req projectRequest, owner model.ID) error {
	ctx := c.UserContext()
	if req.Color == "" {
		req.Color = model.ColorBlue
	}
	if err := validColor(&req.Color); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	taken, err := s.store.ProjectNameTaken(ctx, owner, name, "")
	if err != nil {
		return err
	}
	if taken {
		return invalid("You already have a project with this name.")
	}

	p := &model.Project{Name: name, Description: req.Description, Color: req.Color, Owner: owner}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return err
	}
	created, err := s.store.GetProjectByID(ctx, p.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) applyProjectPatch(c *fiber.Ctx, p model.Project, patch projectPatch) error {
	ctx := c.UserContext()
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
		if p.Name == "" {
			return invalid("Name is required.")
		}
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if err := validColor(patch.Color); err != nil {
		return err
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	if patch.User != nil && *patch.User != p.Owner {
		if err := s.userExists(c, *patch.User); err != nil {
			return err
		}
		p.Owner = *patch.User
	}

	taken, err := s.store.ProjectNameTaken(ctx, p.Owner, p.Name, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return invalid("You already have a project with this name.")
	}

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return err
	}
	updated, err := s.store.GetProjectByID(ctx, p.ID)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (s *Server) userExists(c *fiber.Ctx, id model.ID) error {
	_, err := s.store.GetUserByID(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return invalid("Invalid user.")
	}
	return err
}
