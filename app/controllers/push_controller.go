package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

type pushSubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=500"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required,max=200"`
		Auth   string `json:"auth" validate:"required,max=100"`
	} `json:"keys"`
}

// HandlePushSubscribe registers a browser push endpoint for the caller.
func HandlePushSubscribe(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)

	var req pushSubscribeRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	sub := &models.PushSubscription{
		UserID:    ctx.UserID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if err := repository.GetGlobalFactory().GetPushSubscriptionRepository().Upsert(sub); err != nil {
		return internalError(c, "Failed to register push endpoint")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "subscribed"})
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=500"`
}

// HandlePushUnsubscribe removes a push endpoint.
func HandlePushUnsubscribe(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)

	var req pushUnsubscribeRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetPushSubscriptionRepository().DeleteByEndpoint(ctx.UserID, req.Endpoint); err != nil {
		return internalError(c, "Failed to remove push endpoint")
	}
	return c.JSON(fiber.Map{"status": "unsubscribed"})
}

// HandlePushVAPIDKey exposes the public VAPID key clients need to subscribe.
func HandlePushVAPIDKey(c *fiber.Ctx) error {
	key := env.GetEnv("VAPID_PUBLIC_KEY", "")
	if key == "" {
		return errorJSON(c, fiber.StatusServiceUnavailable, "push_disabled", "Push notifications are not configured")
	}
	return c.JSON(fiber.Map{"public_key": key})
}
