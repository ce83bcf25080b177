package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

// Locals keys set by RequireWorkspaceRole.
const (
	KeyWorkspace       = "WORKSPACE"
	KeyWorkspaceMember = "WORKSPACE_MEMBER"
)

// RequireWorkspaceRole resolves the :workspaceUUID route param, checks the
// caller's membership against the minimum role and stores workspace +
// membership on the request. Non-members get a 404, not a 403, so workspace
// existence is not leaked.
func RequireWorkspaceRole(minRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := usercontext.GetUserContext(c)
		if !ctx.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
		}

		wsUUID := c.Params("workspaceUUID")
		if wsUUID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "workspace id missing"})
		}

		repo := repository.GetGlobalFactory().GetWorkspaceRepository()
		workspace, err := repo.GetByUUID(wsUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Workspace not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load workspace"})
		}

		member, err := repo.GetMember(workspace.ID, ctx.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Workspace not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load membership"})
		}

		if models.RoleRank(member.Role) < models.RoleRank(minRole) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "insufficient workspace role"})
		}

		c.Locals(KeyWorkspace, workspace)
		c.Locals(KeyWorkspaceMember, member)
		return c.Next()
	}
}

// WorkspaceFromLocals returns the workspace resolved by RequireWorkspaceRole.
func WorkspaceFromLocals(c *fiber.Ctx) *models.Workspace {
	if ws, ok := c.Locals(KeyWorkspace).(*models.Workspace); ok {
		return ws
	}
	return nil
}

// MemberFromLocals returns the membership resolved by RequireWorkspaceRole.
func MemberFromLocals(c *fiber.Ctx) *models.WorkspaceMember {
	if m, ok := c.Locals(KeyWorkspaceMember).(*models.WorkspaceMember); ok {
		return m
	}
	return nil
}
