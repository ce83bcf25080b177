package models

import "time"

// Billing providers supported for checkout and webhooks.
const (
	BillingProviderStripe      = "stripe"
	BillingProviderMercadoPago = "mercadopago"
)

// Internal subscription status vocabulary. Provider statuses are translated
// into this set at the boundary and never stored raw.
const (
	BillingStatusActive     = "active"
	BillingStatusTrialing   = "trialing"
	BillingStatusPastDue    = "past_due"
	BillingStatusCanceled   = "canceled"
	BillingStatusIncomplete = "incomplete"
	BillingStatusPaused     = "paused"
)

// Plan tiers, coarse entitlement levels derived from provider plan IDs.
const (
	PlanTierFree       = "free"
	PlanTierStarter    = "starter"
	PlanTierPro        = "pro"
	PlanTierEnterprise = "enterprise"
)

// BillingSubscription mirrors the provider's recurring-billing agreement for
// a user. There is one row per user; webhook processing upserts on
// (provider, external_subscription_id) while manual sync upserts on user_id.
// The two conflict keys intentionally differ, matching the write paths'
// contracts; divergence on re-subscription is a known risk (see DESIGN.md).
type BillingSubscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;uniqueIndex:ux_billing_subscriptions_user" json:"user_id"`
	Provider               string     `gorm:"type:varchar(20);not null;index:ux_billing_subscriptions_provider_subid,unique,priority:1" json:"provider"`
	ExternalSubscriptionID string     `gorm:"type:varchar(191);not null;index:ux_billing_subscriptions_provider_subid,unique,priority:2" json:"external_subscription_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'incomplete';index" json:"status"`
	PlanTier               string     `gorm:"type:varchar(20);not null;default:'free';index" json:"plan_tier"`
	CurrentPeriodStart     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt             *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	EndedAt                *time.Time `gorm:"type:timestamp;default:null" json:"ended_at,omitempty"`
	RawPayloadJSON         string     `gorm:"type:longtext" json:"-"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
