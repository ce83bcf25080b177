package billing

import (
	"context"
	"time"
)

// ProviderSubscription is the provider-agnostic view of a recurring-billing
// agreement as re-fetched from the provider's API. Webhooks are treated as a
// "go look" signal only; this shape always comes from an authoritative read.
type ProviderSubscription struct {
	ExternalID         string
	PlanID             string
	Status             string // raw provider status, translated at upsert time
	ExternalReference  string
	ExternalAccountID  string // provider-side payer/customer ID
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	RawJSON            string
}

// CheckoutInput carries what a provider needs to open a checkout/preapproval
// session for a plan.
type CheckoutInput struct {
	PlanID            string
	ExternalReference string // the user's public UUID
	PayerEmail        string
	SuccessURL        string
	CancelURL         string
}

// CheckoutSession is the provider's answer to a checkout request.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// Provider abstracts the two payment providers behind the operations the
// reconciliation logic needs.
type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, externalID string) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, externalID string) error
	TranslateStatus(providerStatus string) string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
