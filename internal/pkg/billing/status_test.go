package billing

import (
	"testing"
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
)

func TestMercadoPagoStatusToBillingStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "authorized", want: models.BillingStatusActive},
		{in: "pending", want: models.BillingStatusIncomplete},
		{in: "paused", want: models.BillingStatusPaused},
		{in: "cancelled", want: models.BillingStatusCanceled},
		{in: "AUTHORIZED", want: models.BillingStatusActive},
		// unknown statuses pass through instead of being swallowed
		{in: "in_mediation", want: "in_mediation"},
		{in: "something_new", want: "something_new"},
	}

	for _, tt := range tests {
		if got := MercadoPagoStatusToBillingStatus(tt.in); got != tt.want {
			t.Fatalf("MercadoPagoStatusToBillingStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripeStatusToBillingStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "active", want: models.BillingStatusActive},
		{in: "trialing", want: models.BillingStatusTrialing},
		{in: "past_due", want: models.BillingStatusPastDue},
		{in: "canceled", want: models.BillingStatusCanceled},
		{in: "incomplete_expired", want: models.BillingStatusIncomplete},
		{in: "unpaid", want: models.BillingStatusPastDue},
	}

	for _, tt := range tests {
		if got := StripeStatusToBillingStatus(tt.in); got != tt.want {
			t.Fatalf("StripeStatusToBillingStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsPremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name              string
		status            string
		cancelAtPeriodEnd bool
		canceledAt        *time.Time
		want              bool
	}{
		{name: "active", status: "active", want: true},
		{name: "trialing", status: "trialing", want: true},
		{name: "past_due keeps access", status: "past_due", want: true},
		{name: "paused", status: "paused", want: false},
		{name: "canceled", status: "canceled", want: false},
		{name: "incomplete", status: "incomplete", want: false},
		{name: "canceled but scheduled flag set", status: "canceled", cancelAtPeriodEnd: true, want: true},
		{name: "active with future grace boundary", status: "active", canceledAt: &future, want: true},
		{name: "active with past grace boundary", status: "active", canceledAt: &past, want: false},
		{name: "scheduled cancel, boundary passed", status: "canceled", cancelAtPeriodEnd: true, canceledAt: &past, want: false},
		{name: "scheduled cancel, boundary ahead", status: "canceled", cancelAtPeriodEnd: true, canceledAt: &future, want: true},
		{name: "boundary exactly now", status: "active", canceledAt: &now, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPremium(tt.status, tt.cancelAtPeriodEnd, tt.canceledAt, now)
			if got != tt.want {
				t.Fatalf("IsPremium(%q, %v, %v) = %v, want %v", tt.status, tt.cancelAtPeriodEnd, tt.canceledAt, got, tt.want)
			}
		})
	}
}

func TestSubscriptionIsPremium_NilRow(t *testing.T) {
	if SubscriptionIsPremium(nil, time.Now()) {
		t.Fatal("nil subscription must never be premium")
	}
}
