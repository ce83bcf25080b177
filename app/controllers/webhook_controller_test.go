package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/internal/pkg/billing"
)

func newWebhookTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/mercadopago", HandleMercadoPagoWebhook)
	return app
}

// Notifications naming no resource must be acknowledged, not retried: the
// provider keeps redelivering anything that does not get a 2xx.
func TestMercadoPagoWebhook_NoResourceIDIsIgnored(t *testing.T) {
	app := newWebhookTestApp()

	tests := []struct {
		name string
		url  string
		body string
	}{
		{name: "empty body, no params", url: "/webhooks/mercadopago", body: ""},
		{name: "non-json body", url: "/webhooks/mercadopago", body: "hello"},
		{name: "topic without id", url: "/webhooks/mercadopago?topic=preapproval", body: ""},
		{name: "json without data id", url: "/webhooks/mercadopago", body: `{"type":"subscription_preapproval"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.url, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &payload))
			assert.Equal(t, "ignored", payload["status"])
		})
	}
}

type stubBillingRepository struct {
	subsByExt   map[string]*models.BillingSubscription
	usersByUUID map[string]*models.User
	events      map[string]*models.BillingWebhookEvent
}

func newStubBillingRepository() *stubBillingRepository {
	return &stubBillingRepository{
		subsByExt:   map[string]*models.BillingSubscription{},
		usersByUUID: map[string]*models.User{},
		events:      map[string]*models.BillingWebhookEvent{},
	}
}

func (r *stubBillingRepository) UpsertSubscriptionByExternalID(sub *models.BillingSubscription) error {
	r.subsByExt[sub.Provider+":"+sub.ExternalSubscriptionID] = sub
	return nil
}

func (r *stubBillingRepository) UpsertSubscriptionByUserID(sub *models.BillingSubscription) error {
	r.subsByExt[sub.Provider+":"+sub.ExternalSubscriptionID] = sub
	return nil
}

func (r *stubBillingRepository) GetSubscriptionByUserID(userID uint) (*models.BillingSubscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBillingRepository) SaveSubscription(sub *models.BillingSubscription) error { return nil }

func (r *stubBillingRepository) FinalizeExpired(now time.Time) (int64, error) { return 0, nil }

func (r *stubBillingRepository) UpsertBillingAccount(account *models.BillingAccount) error {
	return nil
}

func (r *stubBillingRepository) GetBillingAccountByExternalAccountID(provider, externalAccountID string) (*models.BillingAccount, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBillingRepository) GetUserByUUID(uuid string) (*models.User, error) {
	user, ok := r.usersByUUID[uuid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubBillingRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		return false, existing, nil
	}
	event.ID = uint(len(r.events) + 1)
	r.events[key] = event
	return true, event, nil
}

func (r *stubBillingRepository) MarkWebhookProcessed(id uint, processingError string) error {
	return nil
}

// stubProvider serves whatever status it currently holds, so a test can
// move the provider-side subscription between deliveries.
type stubProvider struct {
	name     string
	status   string
	ownerRef string
	fetches  int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) CreateCheckout(ctx context.Context, in billing.CheckoutInput) (*billing.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (p *stubProvider) GetSubscription(ctx context.Context, externalID string) (*billing.ProviderSubscription, error) {
	p.fetches++
	return &billing.ProviderSubscription{
		ExternalID:        externalID,
		Status:            p.status,
		ExternalReference: p.ownerRef,
	}, nil
}

func (p *stubProvider) CancelSubscription(ctx context.Context, externalID string) error { return nil }

func (p *stubProvider) TranslateStatus(providerStatus string) string {
	return billing.MercadoPagoStatusToBillingStatus(providerStatus)
}

// Mercado Pago repeats the same topic and resource ID on every state change
// of a preapproval. Each delivery must re-fetch the authoritative state, so
// a provider-side cancellation after the first notification still lands
// locally.
func TestMercadoPagoWebhook_RepeatNotificationRefetchesState(t *testing.T) {
	repo := newStubBillingRepository()
	repo.usersByUUID["4f9c6a2e-aaaa-bbbb-cccc-ddddeeeeffff"] = &models.User{ID: 7}
	provider := &stubProvider{
		name:     models.BillingProviderMercadoPago,
		status:   "authorized",
		ownerRef: "4f9c6a2e-aaaa-bbbb-cccc-ddddeeeeffff",
	}

	restore := newBillingService
	newBillingService = func() *billing.Service {
		return billing.NewService(repo, billing.TierConfig{}, provider)
	}
	defer func() { newBillingService = restore }()

	app := newWebhookTestApp()
	deliver := func() map[string]interface{} {
		req := httptest.NewRequest("POST", "/webhooks/mercadopago?topic=subscription_preapproval&id=pre-1", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		return payload
	}

	first := deliver()
	assert.Equal(t, "ok", first["status"])
	sub := repo.subsByExt["mercadopago:pre-1"]
	require.NotNil(t, sub)
	assert.Equal(t, models.BillingStatusActive, sub.Status)

	provider.status = "cancelled"
	second := deliver()
	assert.Equal(t, "ok", second["status"])
	assert.Equal(t, true, second["duplicate"])
	assert.Equal(t, 2, provider.fetches)

	sub = repo.subsByExt["mercadopago:pre-1"]
	require.NotNil(t, sub)
	assert.Equal(t, models.BillingStatusCanceled, sub.Status)
}
