package billing

import "testing"

func TestIsStripeSubscriptionEvent(t *testing.T) {
	for _, typ := range []string{
		"customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted",
		"customer.subscription.trial_will_end",
	} {
		if !IsStripeSubscriptionEvent(typ) {
			t.Fatalf("%s must be a subscription event", typ)
		}
	}

	for _, typ := range []string{
		"invoice.paid",
		"checkout.session.completed",
		"payment_intent.succeeded",
		"",
	} {
		if IsStripeSubscriptionEvent(typ) {
			t.Fatalf("%s must not be a subscription event", typ)
		}
	}
}
