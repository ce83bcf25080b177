package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/flowdeskhq/flowdesk/app/models"
)

type fakeRepository struct {
	subsByUser     map[uint]*models.BillingSubscription
	usersByUUID    map[string]*models.User
	accountsByExt  map[string]*models.BillingAccount
	events         map[string]*models.BillingWebhookEvent
	upsertsByExtID []*models.BillingSubscription
	upsertsByUser  []*models.BillingSubscription
	saved          []*models.BillingSubscription
	finalizeCount  int64
	finalizeErr    error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		subsByUser:    map[uint]*models.BillingSubscription{},
		usersByUUID:   map[string]*models.User{},
		accountsByExt: map[string]*models.BillingAccount{},
		events:        map[string]*models.BillingWebhookEvent{},
	}
}

func (r *fakeRepository) UpsertSubscriptionByExternalID(sub *models.BillingSubscription) error {
	r.upsertsByExtID = append(r.upsertsByExtID, sub)
	r.subsByUser[sub.UserID] = sub
	return nil
}

func (r *fakeRepository) UpsertSubscriptionByUserID(sub *models.BillingSubscription) error {
	r.upsertsByUser = append(r.upsertsByUser, sub)
	r.subsByUser[sub.UserID] = sub
	return nil
}

func (r *fakeRepository) GetSubscriptionByUserID(userID uint) (*models.BillingSubscription, error) {
	sub, ok := r.subsByUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (r *fakeRepository) SaveSubscription(sub *models.BillingSubscription) error {
	r.saved = append(r.saved, sub)
	r.subsByUser[sub.UserID] = sub
	return nil
}

func (r *fakeRepository) FinalizeExpired(now time.Time) (int64, error) {
	return r.finalizeCount, r.finalizeErr
}

func (r *fakeRepository) UpsertBillingAccount(account *models.BillingAccount) error {
	r.accountsByExt[account.Provider+":"+account.ExternalAccountID] = account
	return nil
}

func (r *fakeRepository) GetBillingAccountByExternalAccountID(provider, externalAccountID string) (*models.BillingAccount, error) {
	acc, ok := r.accountsByExt[provider+":"+externalAccountID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return acc, nil
}

func (r *fakeRepository) GetUserByUUID(uuid string) (*models.User, error) {
	user, ok := r.usersByUUID[uuid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		return false, existing, nil
	}
	event.ID = uint(len(r.events) + 1)
	r.events[key] = event
	return true, event, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	return nil
}

type fakeProvider struct {
	name        string
	remote      *ProviderSubscription
	getErr      error
	cancelErr   error
	cancelCalls int
	getCalls    int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	return &CheckoutSession{SessionID: "sess_1", URL: "https://pay.example/sess_1"}, nil
}

func (p *fakeProvider) GetSubscription(ctx context.Context, externalID string) (*ProviderSubscription, error) {
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	return p.remote, nil
}

func (p *fakeProvider) CancelSubscription(ctx context.Context, externalID string) error {
	p.cancelCalls++
	return p.cancelErr
}

func (p *fakeProvider) TranslateStatus(providerStatus string) string {
	return MercadoPagoStatusToBillingStatus(providerStatus)
}

func newTestService(repo *fakeRepository, providers ...Provider) *Service {
	return NewService(repo, testTierConfig(), providers...)
}

func TestSyncByExternalID_ResolvesOwnerByExternalReference(t *testing.T) {
	repo := newFakeRepository()
	repo.usersByUUID["4f9c6a2e-1111-2222-3333-444455556666"] = &models.User{ID: 42}

	provider := &fakeProvider{
		name: "mercadopago",
		remote: &ProviderSubscription{
			ExternalID:        "preapproval-1",
			PlanID:            "price_pro_m",
			Status:            "authorized",
			ExternalReference: "4f9c6a2e-1111-2222-3333-444455556666",
		},
	}
	svc := newTestService(repo, provider)

	sub, err := svc.SyncByExternalID(context.Background(), "mercadopago", "preapproval-1")
	if err != nil {
		t.Fatalf("SyncByExternalID returned error: %v", err)
	}
	if sub.UserID != 42 {
		t.Fatalf("owner = %d, want 42", sub.UserID)
	}
	if sub.Status != models.BillingStatusActive {
		t.Fatalf("status = %q, want active", sub.Status)
	}
	if sub.PlanTier != models.PlanTierPro {
		t.Fatalf("plan tier = %q, want pro", sub.PlanTier)
	}
	if len(repo.upsertsByExtID) != 1 || len(repo.upsertsByUser) != 0 {
		t.Fatalf("webhook path must upsert by external id, got %d/%d", len(repo.upsertsByExtID), len(repo.upsertsByUser))
	}
}

func TestSyncByExternalID_FallsBackToLinkedAccount(t *testing.T) {
	repo := newFakeRepository()
	repo.accountsByExt["stripe:cus_123"] = &models.BillingAccount{UserID: 7, Provider: "stripe", ExternalAccountID: "cus_123"}

	provider := &fakeProvider{
		name: "stripe",
		remote: &ProviderSubscription{
			ExternalID:        "sub_9",
			PlanID:            "price_starter_m",
			Status:            "authorized",
			ExternalAccountID: "cus_123",
		},
	}
	svc := newTestService(repo, provider)

	sub, err := svc.SyncByExternalID(context.Background(), "stripe", "sub_9")
	if err != nil {
		t.Fatalf("SyncByExternalID returned error: %v", err)
	}
	if sub.UserID != 7 {
		t.Fatalf("owner = %d, want 7", sub.UserID)
	}
}

func TestSyncByExternalID_RejectsImplausibleReference(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{
		name: "mercadopago",
		remote: &ProviderSubscription{
			ExternalID:        "preapproval-2",
			Status:            "authorized",
			ExternalReference: "abc", // too short to be a user UUID
		},
	}
	svc := newTestService(repo, provider)

	_, err := svc.SyncByExternalID(context.Background(), "mercadopago", "preapproval-2")
	if !errors.Is(err, ErrImplausibleReference) {
		t.Fatalf("err = %v, want ErrImplausibleReference", err)
	}
	if len(repo.upsertsByExtID) != 0 {
		t.Fatal("nothing must be written for an implausible reference")
	}
}

func TestSyncByExternalID_UnresolvedOwner(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{
		name: "mercadopago",
		remote: &ProviderSubscription{
			ExternalID:        "preapproval-3",
			Status:            "authorized",
			ExternalReference: "no-such-user-uuid-here",
		},
	}
	svc := newTestService(repo, provider)

	_, err := svc.SyncByExternalID(context.Background(), "mercadopago", "preapproval-3")
	if !errors.Is(err, ErrOwnerNotResolved) {
		t.Fatalf("err = %v, want ErrOwnerNotResolved", err)
	}
}

func TestSyncForUser_UpsertsByUserID(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{
		name: "mercadopago",
		remote: &ProviderSubscription{
			ExternalID: "preapproval-4",
			PlanID:     "price_starter_m",
			Status:     "pending",
		},
	}
	svc := newTestService(repo, provider)

	sub, err := svc.SyncForUser(context.Background(), 11, "mercadopago", "preapproval-4")
	if err != nil {
		t.Fatalf("SyncForUser returned error: %v", err)
	}
	if sub.UserID != 11 {
		t.Fatalf("user = %d, want 11", sub.UserID)
	}
	if sub.Status != models.BillingStatusIncomplete {
		t.Fatalf("status = %q, want incomplete", sub.Status)
	}
	if len(repo.upsertsByUser) != 1 || len(repo.upsertsByExtID) != 0 {
		t.Fatalf("manual sync must upsert by user id, got %d/%d", len(repo.upsertsByUser), len(repo.upsertsByExtID))
	}
}

func TestCancel_NoSubscription(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{name: "mercadopago"}
	svc := newTestService(repo, provider)

	_, err := svc.Cancel(context.Background(), 5)
	if !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("err = %v, want ErrNoActiveSubscription", err)
	}
	if provider.cancelCalls != 0 {
		t.Fatal("provider must not be called when there is nothing to cancel")
	}
}

func TestCancel_NonPremiumStatus(t *testing.T) {
	repo := newFakeRepository()
	repo.subsByUser[5] = &models.BillingSubscription{
		UserID:   5,
		Provider: "mercadopago",
		Status:   models.BillingStatusCanceled,
	}
	provider := &fakeProvider{name: "mercadopago"}
	svc := newTestService(repo, provider)

	_, err := svc.Cancel(context.Background(), 5)
	if !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("err = %v, want ErrNoActiveSubscription", err)
	}
	if provider.cancelCalls != 0 {
		t.Fatal("provider must not be called for an already canceled subscription")
	}
}

func TestCancel_SchedulesAtPeriodEnd(t *testing.T) {
	repo := newFakeRepository()
	repo.subsByUser[5] = &models.BillingSubscription{
		UserID:                 5,
		Provider:               "mercadopago",
		ExternalSubscriptionID: "preapproval-5",
		Status:                 models.BillingStatusActive,
	}
	provider := &fakeProvider{name: "mercadopago"}
	svc := newTestService(repo, provider)

	sub, err := svc.Cancel(context.Background(), 5)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if provider.cancelCalls != 1 {
		t.Fatalf("provider cancel calls = %d, want 1", provider.cancelCalls)
	}
	if !sub.CancelAtPeriodEnd {
		t.Fatal("cancel_at_period_end must be set")
	}
	if sub.CanceledAt == nil {
		t.Fatal("canceled_at must be set")
	}
	// status stays what the provider last reported
	if sub.Status != models.BillingStatusActive {
		t.Fatalf("status = %q, want active (unchanged)", sub.Status)
	}
}

func TestCancel_ProviderFailureLeavesStateUntouched(t *testing.T) {
	repo := newFakeRepository()
	repo.subsByUser[5] = &models.BillingSubscription{
		UserID:                 5,
		Provider:               "mercadopago",
		ExternalSubscriptionID: "preapproval-6",
		Status:                 models.BillingStatusActive,
	}
	provider := &fakeProvider{name: "mercadopago", cancelErr: errors.New("api down")}
	svc := newTestService(repo, provider)

	if _, err := svc.Cancel(context.Background(), 5); err == nil {
		t.Fatal("expected provider error to surface")
	}
	if len(repo.saved) != 0 {
		t.Fatal("local state must not change when the provider call fails")
	}
	if repo.subsByUser[5].CancelAtPeriodEnd {
		t.Fatal("cancel_at_period_end must stay unset")
	}
}

func TestIsUserPremium_NoRowIsNotAnError(t *testing.T) {
	svc := newTestService(newFakeRepository())
	premium, err := svc.IsUserPremium(context.Background(), 99, time.Now())
	if err != nil {
		t.Fatalf("IsUserPremium returned error: %v", err)
	}
	if premium {
		t.Fatal("user without a subscription must not be premium")
	}
}

func TestFinalizeExpired_ZeroRows(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	count, err := svc.FinalizeExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("FinalizeExpired returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestRecordWebhookEvent_Deduplicates(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	in := WebhookEventInput{
		Provider:        "mercadopago",
		ProviderEventID: "preapproval:abc",
		EventType:       "preapproval",
		PayloadJSON:     `{"id":"abc"}`,
		SignatureValid:  true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("first record: created=%v err=%v", created, err)
	}
	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("second record returned error: %v", err)
	}
	if created {
		t.Fatal("duplicate event must not count as created")
	}
	if first.ID != second.ID {
		t.Fatalf("duplicate must return the stored row, got %d vs %d", first.ID, second.ID)
	}
}

func TestRecordWebhookEvent_HashFallbackForMissingID(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, event, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "stripe",
		PayloadJSON: `{"some":"payload"}`,
	})
	if err != nil || !created {
		t.Fatalf("record: created=%v err=%v", created, err)
	}
	if event.ProviderEventID == "" {
		t.Fatal("event without a provider ID must get a derived one")
	}

	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "stripe",
		PayloadJSON: `{"some":"payload"}`,
	})
	if err != nil {
		t.Fatalf("second record returned error: %v", err)
	}
	if created {
		t.Fatal("identical payload must deduplicate via the hash ID")
	}
}

func TestInitiateCheckout_RejectsUnknownPlan(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{name: "mercadopago"}
	svc := newTestService(repo, provider)

	user := &models.User{ID: 1, UUID: "4f9c6a2e-aaaa-bbbb-cccc-ddddeeeeffff", Email: "u@example.com"}
	_, err := svc.InitiateCheckout(context.Background(), user, "mercadopago", "price_unknown", "", "")
	if !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("err = %v, want ErrUnknownPlan", err)
	}
}

func TestInitiateCheckout_StoresProvisionalAccount(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{name: "mercadopago"}
	svc := newTestService(repo, provider)

	user := &models.User{ID: 1, UUID: "4f9c6a2e-aaaa-bbbb-cccc-ddddeeeeffff", Email: "u@example.com"}
	session, err := svc.InitiateCheckout(context.Background(), user, "mercadopago", "price_pro_m", "", "")
	if err != nil {
		t.Fatalf("InitiateCheckout returned error: %v", err)
	}
	if session.URL == "" {
		t.Fatal("checkout URL must be returned")
	}
	if len(repo.accountsByExt) != 1 {
		t.Fatalf("accounts stored = %d, want 1", len(repo.accountsByExt))
	}
}

func TestCompleteCheckout_LinksAccountAndSyncs(t *testing.T) {
	repo := newFakeRepository()
	repo.usersByUUID["4f9c6a2e-aaaa-bbbb-cccc-ddddeeeeffff"] = &models.User{ID: 9}

	provider := &fakeProvider{
		name: "stripe",
		remote: &ProviderSubscription{
			ExternalID:        "sub_1",
			PlanID:            "price_pro_m",
			Status:            "authorized",
			ExternalAccountID: "cus_1",
		},
	}
	svc := newTestService(repo, provider)

	sub, err := svc.CompleteCheckout(context.Background(), "stripe", "4f9c6a2e-aaaa-bbbb-cccc-ddddeeeeffff", "cus_1", "sub_1")
	if err != nil {
		t.Fatalf("CompleteCheckout returned error: %v", err)
	}
	if sub.UserID != 9 {
		t.Fatalf("owner = %d, want 9", sub.UserID)
	}
	if len(repo.upsertsByUser) != 1 {
		t.Fatalf("checkout completion must upsert by user id, got %d", len(repo.upsertsByUser))
	}
	if _, err := repo.GetBillingAccountByExternalAccountID("stripe", "cus_1"); err != nil {
		t.Fatalf("customer link must be stored: %v", err)
	}

	// lifecycle events carry only the customer ID; the link above is what
	// lets them resolve an owner without a manual sync first
	sub, err = svc.SyncByExternalID(context.Background(), "stripe", "sub_1")
	if err != nil {
		t.Fatalf("SyncByExternalID after checkout returned error: %v", err)
	}
	if sub.UserID != 9 {
		t.Fatalf("owner via account link = %d, want 9", sub.UserID)
	}
}

func TestCompleteCheckout_UnresolvableReference(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{
		name:   "stripe",
		remote: &ProviderSubscription{ExternalID: "sub_1", Status: "authorized"},
	}
	svc := newTestService(repo, provider)

	if _, err := svc.CompleteCheckout(context.Background(), "stripe", "4f9c6a2e-0000-1111-2222-333344445555", "cus_1", "sub_1"); !errors.Is(err, ErrOwnerNotResolved) {
		t.Fatalf("err = %v, want ErrOwnerNotResolved", err)
	}
	if _, err := svc.CompleteCheckout(context.Background(), "stripe", "short", "cus_1", "sub_1"); !errors.Is(err, ErrImplausibleReference) {
		t.Fatalf("err = %v, want ErrImplausibleReference", err)
	}
	if len(repo.upsertsByUser) != 0 {
		t.Fatalf("no upsert expected, got %d", len(repo.upsertsByUser))
	}
}

func TestUnknownProvider(t *testing.T) {
	svc := newTestService(newFakeRepository())
	if _, err := svc.SyncByExternalID(context.Background(), "paypal", "x"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}
