package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/internal/pkg/billing"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

type checkoutRequest struct {
	Provider   string `json:"provider" validate:"required,oneof=stripe mercadopago"`
	PlanID     string `json:"plan_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url" validate:"omitempty,url"`
}

// HandleCreateCheckout opens a provider checkout session for a plan.
func HandleCreateCheckout(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req checkoutRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	svc := newBillingService()
	session, err := svc.InitiateCheckout(c.Context(), user, req.Provider, req.PlanID, req.SuccessURL, req.CancelURL)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownProvider):
			return badRequest(c, "unknown provider")
		case errors.Is(err, billing.ErrUnknownPlan):
			return badRequest(c, "unknown plan")
		default:
			return internalError(c, "Failed to start checkout")
		}
	}
	return c.JSON(fiber.Map{"checkout_url": session.URL, "session_id": session.SessionID})
}

type syncRequest struct {
	Provider               string `json:"provider" validate:"required,oneof=stripe mercadopago"`
	ExternalSubscriptionID string `json:"external_subscription_id" validate:"required"`
}

// HandleSyncSubscription re-fetches authoritative subscription state from
// the provider and stores it for the calling user. Clients call this after
// returning from checkout, when the webhook may not have arrived yet.
func HandleSyncSubscription(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)

	var req syncRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	svc := newBillingService()
	sub, err := svc.SyncForUser(c.Context(), ctx.UserID, req.Provider, req.ExternalSubscriptionID)
	if err != nil {
		if errors.Is(err, billing.ErrUnknownProvider) {
			return badRequest(c, "unknown provider")
		}
		return errorJSON(c, fiber.StatusBadGateway, "provider_error", "Failed to fetch subscription from provider")
	}
	return c.JSON(sub)
}

// HandleCancelSubscription schedules cancellation at period end. The
// provider is asked first; local state only changes after it agrees.
func HandleCancelSubscription(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)

	svc := newBillingService()
	sub, err := svc.Cancel(c.Context(), ctx.UserID)
	if err != nil {
		if errors.Is(err, billing.ErrNoActiveSubscription) {
			return notFound(c, "No active subscription")
		}
		return errorJSON(c, fiber.StatusBadGateway, "provider_error", "Failed to cancel subscription with provider")
	}
	return c.JSON(sub)
}

// HandleGetSubscription returns the caller's subscription together with the
// premium evaluation at request time.
func HandleGetSubscription(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)

	svc := newBillingService()
	sub, err := svc.GetSubscription(c.Context(), ctx.UserID)
	if err != nil {
		if errors.Is(err, billing.ErrNoActiveSubscription) {
			return c.JSON(fiber.Map{"subscription": nil, "premium": false, "plan_tier": "free"})
		}
		return internalError(c, "Failed to load subscription")
	}

	premium := billing.SubscriptionIsPremium(sub, time.Now())
	tier := sub.PlanTier
	if !premium {
		tier = "free"
	}
	return c.JSON(fiber.Map{"subscription": sub, "premium": premium, "plan_tier": tier})
}
