package billing

import (
	"strings"
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
)

// MercadoPagoStatusToBillingStatus translates Mercado Pago preapproval
// statuses into the internal vocabulary. Unknown values pass through
// unchanged so new provider statuses surface in the data instead of being
// swallowed.
func MercadoPagoStatusToBillingStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "authorized":
		return models.BillingStatusActive
	case "pending":
		return models.BillingStatusIncomplete
	case "paused":
		return models.BillingStatusPaused
	case "cancelled":
		return models.BillingStatusCanceled
	default:
		return s
	}
}

// StripeStatusToBillingStatus translates Stripe subscription statuses.
// Stripe's vocabulary mostly matches the internal one already.
func StripeStatusToBillingStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "incomplete_expired":
		return models.BillingStatusIncomplete
	case "unpaid":
		return models.BillingStatusPastDue
	default:
		return s
	}
}

// IsPremiumStatus reports whether a stored status grants paid access on its
// own (before cancellation and grace-period handling).
func IsPremiumStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.BillingStatusActive, models.BillingStatusTrialing, models.BillingStatusPastDue:
		return true
	default:
		return false
	}
}

// IsPremium is the authoritative premium-access decision. It is a pure
// function over the persisted subscription fields and the current time, and
// every access check in the codebase must go through it.
//
// A scheduled cancellation keeps access while the grace period holds; the
// grace boundary is canceledAt, not the period end (kept for compatibility
// with the historical behavior, see DESIGN.md).
func IsPremium(status string, cancelAtPeriodEnd bool, canceledAt *time.Time, now time.Time) bool {
	isGracePeriodValid := canceledAt == nil || now.Before(*canceledAt)
	return (IsPremiumStatus(status) || cancelAtPeriodEnd) && isGracePeriodValid
}

// SubscriptionIsPremium applies IsPremium to a subscription row. A nil row
// means no subscription, never premium.
func SubscriptionIsPremium(sub *models.BillingSubscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	return IsPremium(sub.Status, sub.CancelAtPeriodEnd, sub.CanceledAt, now)
}
