package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go"
	checkoutsession "github.com/stripe/stripe-go/checkout/session"
	"github.com/stripe/stripe-go/sub"
	"github.com/stripe/stripe-go/webhook"

	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
)

// SetStripeKey configures the Stripe SDK key once during bootstrap.
func SetStripeKey(key string) { stripe.Key = key }

// SetupStripeFromEnv wires the SDK key from the environment.
func SetupStripeFromEnv() {
	SetStripeKey(strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")))
}

// StripeClient implements Provider on top of the official Stripe SDK. The
// SDK carries global key state, so the struct itself is empty.
type StripeClient struct{}

func NewStripeClient() *StripeClient { return &StripeClient{} }

func (c *StripeClient) Name() string { return "stripe" }

func (c *StripeClient) TranslateStatus(providerStatus string) string {
	return StripeStatusToBillingStatus(providerStatus)
}

// CreateCheckout opens a hosted checkout session in subscription mode for
// the given price ID.
func (c *StripeClient) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	if strings.TrimSpace(in.PlanID) == "" {
		return nil, errors.New("plan id is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ClientReferenceID:  stripe.String(in.ExternalReference),
		CustomerEmail:      stripe.String(in.PayerEmail),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Items: []*stripe.CheckoutSessionSubscriptionDataItemsParams{
				{
					Plan:     stripe.String(in.PlanID),
					Quantity: stripe.Int64(1),
				},
			},
		},
	}
	_ = ctx // the SDK at this major version takes no context

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{
		SessionID: s.ID,
		URL:       "https://checkout.stripe.com/pay/" + s.ID,
	}, nil
}

// GetSubscription fetches the authoritative subscription state by ID.
func (c *StripeClient) GetSubscription(ctx context.Context, externalID string) (*ProviderSubscription, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return nil, errors.New("subscription id is required")
	}

	_ = ctx
	s, err := sub.Get(id, nil)
	if err != nil {
		return nil, err
	}
	return stripeSubscriptionToProvider(s), nil
}

// CancelSubscription schedules cancellation at period end; access is not
// revoked immediately.
func (c *StripeClient) CancelSubscription(ctx context.Context, externalID string) error {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return errors.New("subscription id is required")
	}
	_ = ctx
	_, err := sub.Update(id, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	return err
}

// VerifyStripeWebhook checks the Stripe-Signature header against the
// configured endpoint secret and returns the decoded event.
func VerifyStripeWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	secret := strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
	if secret == "" {
		return stripe.Event{}, errors.New("STRIPE_WEBHOOK_SECRET is not configured")
	}
	return webhook.ConstructEvent(payload, signatureHeader, secret)
}

// IsStripeSubscriptionEvent reports whether an event type carries a
// subscription whose state should be re-fetched and upserted.
func IsStripeSubscriptionEvent(eventType string) bool {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted",
		"customer.subscription.trial_will_end":
		return true
	default:
		return false
	}
}

func stripeSubscriptionToProvider(s *stripe.Subscription) *ProviderSubscription {
	if s == nil {
		return nil
	}

	out := &ProviderSubscription{
		ExternalID:        s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	if s.Plan != nil {
		out.PlanID = s.Plan.ID
	}
	if s.Customer != nil {
		out.ExternalAccountID = s.Customer.ID
	}
	if s.CurrentPeriodStart > 0 {
		t := time.Unix(s.CurrentPeriodStart, 0).UTC()
		out.CurrentPeriodStart = &t
	}
	if s.CurrentPeriodEnd > 0 {
		t := time.Unix(s.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &t
	}
	return out
}
