package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/entitlements"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=150"`
	Description string `json:"description" validate:"max=5000"`
}

// HandleCreateProject creates a project in the workspace. The project cap of
// the workspace owner's plan tier applies.
func HandleCreateProject(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	var req createProjectRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetProjectRepository()
	count, err := repo.CountByWorkspace(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to count projects")
	}
	if max := entitlements.MaxProjects(workspaceTier(workspace.OwnerID)); max > 0 && count >= max {
		return errorJSON(c, fiber.StatusForbidden, "project_limit_reached", "Project limit for the current plan is reached")
	}

	project := &models.Project{
		WorkspaceID: workspace.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatusActive,
		CreatedBy:   ctx.UserID,
	}
	if err := repo.Create(project); err != nil {
		return internalError(c, "Failed to create project")
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// HandleListProjects lists the workspace's projects.
func HandleListProjects(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	projects, err := repository.GetGlobalFactory().GetProjectRepository().ListByWorkspace(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load projects")
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// HandleGetProject returns one project.
func HandleGetProject(c *fiber.Ctx) error {
	project, err := projectInWorkspace(c)
	if err != nil {
		return err
	}
	return c.JSON(project)
}

type updateProjectRequest struct {
	Name        string  `json:"name" validate:"omitempty,min=2,max=150"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Status      string  `json:"status" validate:"omitempty,oneof=active archived"`
}

// HandleUpdateProject updates name, description or archive status.
func HandleUpdateProject(c *fiber.Ctx) error {
	project, err := projectInWorkspace(c)
	if err != nil {
		return err
	}

	var req updateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != "" {
		project.Status = req.Status
	}

	if err := repository.GetGlobalFactory().GetProjectRepository().Update(project); err != nil {
		return internalError(c, "Failed to update project")
	}
	return c.JSON(project)
}

// HandleDeleteProject soft-deletes a project.
func HandleDeleteProject(c *fiber.Ctx) error {
	project, err := projectInWorkspace(c)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalFactory().GetProjectRepository().Delete(project.ID); err != nil {
		return internalError(c, "Failed to delete project")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// projectInWorkspace resolves :projectUUID and rejects cross-workspace access.
func projectInWorkspace(c *fiber.Ctx) (*models.Project, error) {
	workspace := middleware.WorkspaceFromLocals(c)
	project, err := repository.GetGlobalFactory().GetProjectRepository().GetByUUID(c.Params("projectUUID"))
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(c, "Project not found")
		}
		return nil, internalError(c, "Failed to load project")
	}
	if project.WorkspaceID != workspace.ID {
		return nil, notFound(c, "Project not found")
	}
	return project, nil
}
