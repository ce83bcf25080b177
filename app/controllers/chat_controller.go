package controllers

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/cache"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

const defaultMessagePageSize = 50

// chatTopic is the Redis pub/sub channel connected clients subscribe to.
func chatTopic(workspaceUUID, channelUUID string) string {
	return fmt.Sprintf("chat:%s:%s", workspaceUUID, channelUUID)
}

type createChannelRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Topic string `json:"topic" validate:"max=250"`
}

// HandleCreateChannel creates a named channel in the workspace.
func HandleCreateChannel(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	var req createChannelRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	channel := &models.ChatChannel{
		WorkspaceID: workspace.ID,
		Name:        req.Name,
		Topic:       req.Topic,
		CreatedBy:   ctx.UserID,
	}
	if err := repository.GetGlobalFactory().GetChatRepository().CreateChannel(channel); err != nil {
		return errorJSON(c, fiber.StatusConflict, "channel_exists", "A channel with this name already exists")
	}
	return c.Status(fiber.StatusCreated).JSON(channel)
}

// HandleListChannels lists the workspace's channels.
func HandleListChannels(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	channels, err := repository.GetGlobalFactory().GetChatRepository().ListChannels(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load channels")
	}
	return c.JSON(fiber.Map{"channels": channels})
}

// HandleDeleteChannel deletes a channel. Admin and up.
func HandleDeleteChannel(c *fiber.Ctx) error {
	channel, err := channelInWorkspace(c)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalFactory().GetChatRepository().DeleteChannel(channel.ID); err != nil {
		return internalError(c, "Failed to delete channel")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

type postMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

// HandlePostMessage persists a message, then fans it out over Redis pub/sub.
// The row is the source of truth; a failed publish only delays delivery
// until the next history fetch.
func HandlePostMessage(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	channel, err := channelInWorkspace(c)
	if err != nil {
		return err
	}

	var req postMessageRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	message := &models.ChatMessage{
		ChannelID:   channel.ID,
		WorkspaceID: workspace.ID,
		UserID:      ctx.UserID,
		Body:        req.Body,
	}
	if err := repository.GetGlobalFactory().GetChatRepository().CreateMessage(message); err != nil {
		return internalError(c, "Failed to store message")
	}

	payload, _ := json.Marshal(message)
	if err := cache.Publish(chatTopic(workspace.UUID, channel.UUID), payload); err != nil {
		log.Warnf("[Chat] publish to %s failed: %v", chatTopic(workspace.UUID, channel.UUID), err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// HandleListMessages returns channel history, newest page first. Pass
// before_id to page backwards.
func HandleListMessages(c *fiber.Ctx) error {
	channel, err := channelInWorkspace(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", defaultMessagePageSize)
	if limit <= 0 || limit > 200 {
		limit = defaultMessagePageSize
	}
	beforeID := c.QueryInt("before_id", 0)

	repo := repository.GetGlobalFactory().GetChatRepository()
	var messages []models.ChatMessage
	if beforeID > 0 {
		messages, err = repo.ListMessages(channel.ID, uint(beforeID), limit)
	} else {
		messages, err = repo.RecentMessages(channel.ID, limit)
	}
	if err != nil {
		return internalError(c, "Failed to load messages")
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func channelInWorkspace(c *fiber.Ctx) (*models.ChatChannel, error) {
	workspace := middleware.WorkspaceFromLocals(c)
	channel, err := repository.GetGlobalFactory().GetChatRepository().GetChannelByUUID(c.Params("channelUUID"))
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(c, "Channel not found")
		}
		return nil, internalError(c, "Failed to load channel")
	}
	if channel.WorkspaceID != workspace.ID {
		return nil, notFound(c, "Channel not found")
	}
	return channel, nil
}
