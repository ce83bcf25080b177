package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
	"github.com/flowdeskhq/flowdesk/internal/pkg/push"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

// New tasks land at the end of their column with this much spacing, so later
// inserts between two neighbors can take the midpoint without renumbering.
const positionStep = 1024.0

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=250"`
	Description string     `json:"description" validate:"max=20000"`
	Column      string     `json:"column" validate:"omitempty"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	Labels      string     `json:"labels" validate:"max=500"`
}

// HandleCreateTask creates a task at the end of its column.
func HandleCreateTask(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	project, err := projectInWorkspace(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	column := req.Column
	if column == "" {
		column = models.TaskColumnTodo
	}
	if !models.ValidTaskColumn(column) {
		return badRequest(c, "unknown column")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if req.AssigneeID != nil {
		if err := assigneeInWorkspace(c, workspace.ID, *req.AssigneeID); err != nil {
			return err
		}
	}

	repo := repository.GetGlobalFactory().GetTaskRepository()
	maxPos, err := repo.MaxPositionInColumn(project.ID, column)
	if err != nil {
		return internalError(c, "Failed to position task")
	}

	task := &models.Task{
		ProjectID:   project.ID,
		WorkspaceID: workspace.ID,
		Title:       req.Title,
		Description: req.Description,
		Column:      column,
		Position:    maxPos + positionStep,
		Priority:    priority,
		AssigneeID:  req.AssigneeID,
		DueAt:       req.DueAt,
		Labels:      req.Labels,
		CreatedBy:   ctx.UserID,
	}
	if err := repo.Create(task); err != nil {
		return internalError(c, "Failed to create task")
	}

	if task.AssigneeID != nil && *task.AssigneeID != ctx.UserID {
		notifyAssignment(*task.AssigneeID, ctx.Name, task.Title)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// HandleListTasks lists the board of a project.
func HandleListTasks(c *fiber.Ctx) error {
	project, err := projectInWorkspace(c)
	if err != nil {
		return err
	}
	tasks, err := repository.GetGlobalFactory().GetTaskRepository().ListByProject(project.ID)
	if err != nil {
		return internalError(c, "Failed to load tasks")
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

// HandleGetTask returns one task.
func HandleGetTask(c *fiber.Ctx) error {
	task, err := taskInWorkspace(c)
	if err != nil {
		return err
	}
	return c.JSON(task)
}

type updateTaskRequest struct {
	Title       string     `json:"title" validate:"omitempty,min=1,max=250"`
	Description *string    `json:"description" validate:"omitempty,max=20000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	Labels      *string    `json:"labels" validate:"omitempty,max=500"`
}

// HandleUpdateTask updates task fields. Column moves go through
// HandleMoveTask so ordering stays consistent.
func HandleUpdateTask(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	task, err := taskInWorkspace(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	previousAssignee := task.AssigneeID
	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == 0 {
			task.AssigneeID = nil
		} else {
			if err := assigneeInWorkspace(c, workspace.ID, *req.AssigneeID); err != nil {
				return err
			}
			task.AssigneeID = req.AssigneeID
		}
	}
	if req.DueAt != nil {
		task.DueAt = req.DueAt
	}
	if req.Labels != nil {
		task.Labels = *req.Labels
	}

	if err := repository.GetGlobalFactory().GetTaskRepository().Update(task); err != nil {
		return internalError(c, "Failed to update task")
	}

	if task.AssigneeID != nil && *task.AssigneeID != ctx.UserID &&
		(previousAssignee == nil || *previousAssignee != *task.AssigneeID) {
		notifyAssignment(*task.AssigneeID, ctx.Name, task.Title)
	}
	return c.JSON(task)
}

type moveTaskRequest struct {
	Column   string   `json:"column" validate:"required"`
	Position *float64 `json:"position"`
}

// HandleMoveTask moves a task to a column, either at an explicit board
// position or appended at the end.
func HandleMoveTask(c *fiber.Ctx) error {
	task, err := taskInWorkspace(c)
	if err != nil {
		return err
	}

	var req moveTaskRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if !models.ValidTaskColumn(req.Column) {
		return badRequest(c, "unknown column")
	}

	repo := repository.GetGlobalFactory().GetTaskRepository()
	task.Column = req.Column
	if req.Position != nil {
		task.Position = *req.Position
	} else {
		maxPos, err := repo.MaxPositionInColumn(task.ProjectID, req.Column)
		if err != nil {
			return internalError(c, "Failed to position task")
		}
		task.Position = maxPos + positionStep
	}

	if err := repo.Update(task); err != nil {
		return internalError(c, "Failed to move task")
	}
	return c.JSON(task)
}

// HandleDeleteTask soft-deletes a task.
func HandleDeleteTask(c *fiber.Ctx) error {
	task, err := taskInWorkspace(c)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalFactory().GetTaskRepository().Delete(task.ID); err != nil {
		return internalError(c, "Failed to delete task")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

func taskInWorkspace(c *fiber.Ctx) (*models.Task, error) {
	workspace := middleware.WorkspaceFromLocals(c)
	task, err := repository.GetGlobalFactory().GetTaskRepository().GetByUUID(c.Params("taskUUID"))
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(c, "Task not found")
		}
		return nil, internalError(c, "Failed to load task")
	}
	if task.WorkspaceID != workspace.ID {
		return nil, notFound(c, "Task not found")
	}
	return task, nil
}

func assigneeInWorkspace(c *fiber.Ctx, workspaceID, userID uint) error {
	_, err := repository.GetGlobalFactory().GetWorkspaceRepository().GetMember(workspaceID, userID)
	if err != nil {
		if isNotFound(err) {
			return badRequest(c, "assignee is not a workspace member")
		}
		return internalError(c, "Failed to check assignee")
	}
	return nil
}

func notifyAssignment(assigneeID uint, actorName, taskTitle string) {
	go push.NotifyUser(assigneeID, push.Notification{
		Title: "New task assigned",
		Body:  fmt.Sprintf("%s assigned you: %s", actorName, taskTitle),
	})
}
