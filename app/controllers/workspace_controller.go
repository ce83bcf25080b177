package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/billing"
	"github.com/flowdeskhq/flowdesk/internal/pkg/entitlements"
	"github.com/flowdeskhq/flowdesk/internal/pkg/mail"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

type createWorkspaceRequest struct {
	Name string `json:"name" validate:"required,min=2,max=150"`
	Slug string `json:"slug" validate:"omitempty,min=2,max=150"`
}

// HandleCreateWorkspace creates a workspace with the caller as owner.
func HandleCreateWorkspace(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)

	var req createWorkspaceRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}

	repo := repository.GetGlobalFactory().GetWorkspaceRepository()
	if _, err := repo.GetBySlug(slug); err == nil {
		return errorJSON(c, fiber.StatusConflict, "slug_taken", "A workspace with this slug already exists")
	}

	workspace := &models.Workspace{
		Name:    req.Name,
		Slug:    slug,
		OwnerID: ctx.UserID,
	}
	if err := repo.Create(workspace); err != nil {
		return internalError(c, "Failed to create workspace")
	}
	return c.Status(fiber.StatusCreated).JSON(workspace)
}

// HandleListWorkspaces lists the caller's workspaces.
func HandleListWorkspaces(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	workspaces, err := repository.GetGlobalFactory().GetWorkspaceRepository().ListByUser(ctx.UserID)
	if err != nil {
		return internalError(c, "Failed to load workspaces")
	}
	return c.JSON(fiber.Map{"workspaces": workspaces})
}

// HandleGetWorkspace returns the workspace with the caller's membership.
func HandleGetWorkspace(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	member := middleware.MemberFromLocals(c)
	return c.JSON(fiber.Map{"workspace": workspace, "membership": member})
}

type updateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,min=2,max=150"`
}

// HandleUpdateWorkspace renames the workspace.
func HandleUpdateWorkspace(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)

	var req updateWorkspaceRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	workspace.Name = req.Name
	if err := repository.GetGlobalFactory().GetWorkspaceRepository().Update(workspace); err != nil {
		return internalError(c, "Failed to update workspace")
	}
	return c.JSON(workspace)
}

// HandleDeleteWorkspace soft-deletes the workspace. Owner only.
func HandleDeleteWorkspace(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	if err := repository.GetGlobalFactory().GetWorkspaceRepository().Delete(workspace.ID); err != nil {
		return internalError(c, "Failed to delete workspace")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleListMembers lists workspace members.
func HandleListMembers(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	members, err := repository.GetGlobalFactory().GetWorkspaceRepository().ListMembers(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load members")
	}
	return c.JSON(fiber.Map{"members": members})
}

type updateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member guest"`
}

// HandleUpdateMemberRole changes another member's role. The owner role is
// not assignable this way.
func HandleUpdateMemberRole(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)

	userID, err := c.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return badRequest(c, "invalid user id")
	}
	if uint(userID) == workspace.OwnerID {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "The owner's role cannot be changed")
	}

	var req updateMemberRoleRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetWorkspaceRepository()
	if _, err := repo.GetMember(workspace.ID, uint(userID)); err != nil {
		if isNotFound(err) {
			return notFound(c, "Member not found")
		}
		return internalError(c, "Failed to load member")
	}
	if err := repo.UpdateMemberRole(workspace.ID, uint(userID), req.Role); err != nil {
		return internalError(c, "Failed to update role")
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// HandleRemoveMember removes a member. The owner cannot be removed.
func HandleRemoveMember(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)

	userID, err := c.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return badRequest(c, "invalid user id")
	}
	if uint(userID) == workspace.OwnerID {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "The owner cannot be removed")
	}

	if err := repository.GetGlobalFactory().GetWorkspaceRepository().RemoveMember(workspace.ID, uint(userID)); err != nil {
		return internalError(c, "Failed to remove member")
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member guest"`
}

// HandleInviteMember creates an email invitation. The member cap of the
// workspace owner's plan tier applies.
func HandleInviteMember(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	var req inviteRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	role := req.Role
	if role == "" {
		role = models.WorkspaceRoleMember
	}

	repo := repository.GetGlobalFactory().GetWorkspaceRepository()
	count, err := repo.CountMembers(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to count members")
	}
	if max := entitlements.MaxMembers(workspaceTier(workspace.OwnerID)); max > 0 && count >= max {
		return errorJSON(c, fiber.StatusForbidden, "member_limit_reached", "Member limit for the current plan is reached")
	}

	token, err := randomToken()
	if err != nil {
		return internalError(c, "Failed to create invite")
	}
	invite := &models.WorkspaceInvite{
		WorkspaceID: workspace.ID,
		Email:       strings.ToLower(req.Email),
		Role:        role,
		Token:       token,
		InvitedBy:   ctx.UserID,
	}
	if err := repo.CreateInvite(invite); err != nil {
		return internalError(c, "Failed to create invite")
	}

	// Mail delivery is best effort, the invite link also shows up in the API.
	go func() {
		_ = mail.SendWorkspaceInvite(invite.Email, workspace.Name, ctx.Name, token)
	}()

	return c.Status(fiber.StatusCreated).JSON(invite)
}

// HandleAcceptInvite joins the authenticated user to the invite's workspace.
func HandleAcceptInvite(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	token := c.Params("token")

	repo := repository.GetGlobalFactory().GetWorkspaceRepository()
	invite, err := repo.GetInviteByToken(token)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "Invite not found")
		}
		return internalError(c, "Failed to load invite")
	}
	if invite.AcceptedAt != nil {
		return errorJSON(c, fiber.StatusConflict, "invite_used", "This invite has already been accepted")
	}

	if _, err := repo.GetMember(invite.WorkspaceID, ctx.UserID); err == nil {
		return errorJSON(c, fiber.StatusConflict, "already_member", "You are already a member of this workspace")
	}

	member := &models.WorkspaceMember{
		WorkspaceID: invite.WorkspaceID,
		UserID:      ctx.UserID,
		Role:        invite.Role,
	}
	if err := repo.AddMember(member); err != nil {
		return internalError(c, "Failed to join workspace")
	}
	if err := repo.MarkInviteAccepted(invite.ID); err != nil {
		return internalError(c, "Failed to finalize invite")
	}

	workspace, err := repo.GetByID(invite.WorkspaceID)
	if err != nil {
		return internalError(c, "Failed to load workspace")
	}
	return c.JSON(fiber.Map{"workspace": workspace, "membership": member})
}

// workspaceTier resolves the plan tier backing a workspace from its owner's
// subscription.
func workspaceTier(ownerID uint) entitlements.Tier {
	svc := newBillingService()
	sub, err := svc.GetSubscription(context.Background(), ownerID)
	if err != nil {
		return entitlements.TierFree
	}
	if !billing.SubscriptionIsPremium(sub, time.Now()) {
		return entitlements.TierFree
	}
	return entitlements.NormalizeTier(sub.PlanTier)
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "ws-" + uuid.New().String()[:8]
	}
	return out
}

func randomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
