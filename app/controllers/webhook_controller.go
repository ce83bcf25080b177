package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/internal/pkg/billing"
)

const webhookTimeout = 15 * time.Second

// HandleMercadoPagoWebhook receives subscription notifications. The webhook
// body is never trusted: it only names the preapproval, whose authoritative
// state is re-fetched from the provider before anything is stored.
//
// Anything without an extractable resource ID or with a foreign topic is
// acknowledged with 200 so the provider stops retrying; fetch and database
// failures return 500 so it retries later.
func HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	n := billing.ExtractMercadoPagoNotification(
		c.Query("topic"),
		c.Query("type"),
		c.Query("id"),
		c.Query("data.id"),
		rawBody,
	)

	svc := newBillingService()
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	if n.ResourceID == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderMercadoPago,
		ProviderEventID: n.Topic + ":" + n.ResourceID,
		EventType:       n.Topic,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}

	if !isMercadoPagoSubscriptionTopic(n.Topic) {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	// Mercado Pago sends the same topic and resource ID for every state
	// change of a preapproval, so an already-recorded payload is still a
	// "something changed, go look" signal. The authoritative re-fetch
	// runs on every delivery; only the stored payload row is deduplicated.
	_, syncErr := svc.SyncByExternalID(ctx, models.BillingProviderMercadoPago, n.ResourceID)
	if syncErr != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, syncErr)
		if errors.Is(syncErr, billing.ErrOwnerNotResolved) || errors.Is(syncErr, billing.ErrImplausibleReference) {
			// Nobody local owns this subscription; retrying won't change that.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed"})
	}

	_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
	resp := fiber.Map{"status": "ok"}
	if !created {
		resp["duplicate"] = true
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func isMercadoPagoSubscriptionTopic(topic string) bool {
	switch strings.ToLower(topic) {
	case "preapproval", "subscription_preapproval", "subscription_authorized_payment":
		return true
	default:
		return false
	}
}

// HandleStripeWebhook receives Stripe events. The signed payload identifies
// the subscription; its state is still re-fetched from the API rather than
// read out of the event object.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	svc := newBillingService()
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	event, err := billing.VerifyStripeWebhook(rawBody, c.Get("Stripe-Signature"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	// Stripe event IDs are unique per event, so a clean replay can stop
	// here. A recorded event whose processing failed gets another run.
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok", "duplicate": true})
	}

	if event.Type == "checkout.session.completed" {
		return handleStripeCheckoutCompleted(c, ctx, svc, event, stored.ID)
	}

	if !billing.IsStripeSubscriptionEvent(event.Type) {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	subID := stripeSubscriptionIDFromEvent(event)
	if subID == "" {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	_, syncErr := svc.SyncByExternalID(ctx, models.BillingProviderStripe, subID)
	if syncErr != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, syncErr)
		if errors.Is(syncErr, billing.ErrOwnerNotResolved) || errors.Is(syncErr, billing.ErrImplausibleReference) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed"})
	}

	_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// handleStripeCheckoutCompleted links a finished checkout back to the local
// user. Stripe subscription objects carry no external reference, so without
// the customer link created here later lifecycle events could not resolve
// an owner and manual sync would be the only recovery path.
func handleStripeCheckoutCompleted(c *fiber.Ctx, ctx context.Context, svc *billing.Service, event stripe.Event, eventID uint) error {
	var sess struct {
		ClientReferenceID string `json:"client_reference_id"`
		Customer          string `json:"customer"`
		Subscription      string `json:"subscription"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.Subscription == "" {
		_ = svc.MarkWebhookProcessed(ctx, eventID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	_, syncErr := svc.CompleteCheckout(ctx, models.BillingProviderStripe, sess.ClientReferenceID, sess.Customer, sess.Subscription)
	if syncErr != nil {
		_ = svc.MarkWebhookProcessed(ctx, eventID, syncErr)
		if errors.Is(syncErr, billing.ErrOwnerNotResolved) || errors.Is(syncErr, billing.ErrImplausibleReference) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed"})
	}

	_ = svc.MarkWebhookProcessed(ctx, eventID, nil)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func stripeSubscriptionIDFromEvent(event stripe.Event) string {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return ""
	}
	return obj.ID
}
