package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
)

// Reconciliation errors surfaced to the HTTP layer.
var (
	ErrUnknownProvider      = errors.New("unknown billing provider")
	ErrUnknownPlan          = errors.New("plan id is not configured for any tier")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrOwnerNotResolved     = errors.New("subscription owner could not be resolved")
	ErrImplausibleReference = errors.New("external reference is missing or implausible")
)

// An external reference shorter than this cannot be a real user UUID and is
// rejected before any upsert.
const minExternalReferenceLen = 8

// Service holds the subscription state-reconciliation logic: it merges
// asynchronous provider notifications with authoritative polling reads and
// maps provider vocabularies onto the internal subscription record.
type Service struct {
	repo      Repository
	tiers     TierConfig
	providers map[string]Provider
}

// NewService creates a billing service from injected collaborators.
func NewService(repo Repository, tiers TierConfig, providers ...Provider) *Service {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Service{repo: repo, tiers: tiers, providers: m}
}

// NewServiceFromDB creates a billing service with both payment providers
// configured from the environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), LoadTierConfig(), NewStripeClient(), NewMercadoPagoClientFromEnv())
}

func (s *Service) provider(name string) (Provider, error) {
	p, ok := s.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// InitiateCheckout opens a provider checkout session for a configured plan
// and persists the provisional user-to-billing-identity mapping.
func (s *Service) InitiateCheckout(ctx context.Context, user *models.User, providerName, planID, successURL, cancelURL string) (*CheckoutSession, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}
	if !s.tiers.KnownPlanID(planID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}

	session, err := p.CreateCheckout(ctx, CheckoutInput{
		PlanID:            planID,
		ExternalReference: user.UUID,
		PayerEmail:        user.Email,
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
	})
	if err != nil {
		return nil, err
	}

	account := &models.BillingAccount{
		UserID:            user.ID,
		Provider:          p.Name(),
		ExternalReference: user.UUID,
		CheckoutSessionID: session.SessionID,
	}
	if err := s.repo.UpsertBillingAccount(account); err != nil {
		return nil, err
	}
	return session, nil
}

// SyncByExternalID is the webhook reconciliation path: re-fetch the
// subscription from the provider by ID, resolve the owning user from the
// external reference (or, for providers without one on the subscription
// object, from the linked billing account), and upsert keyed by the
// provider subscription ID.
func (s *Service) SyncByExternalID(ctx context.Context, providerName, externalID string) (*models.BillingSubscription, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	remote, err := p.GetSubscription(ctx, externalID)
	if err != nil {
		return nil, err
	}

	userID, err := s.resolveOwner(p.Name(), remote)
	if err != nil {
		return nil, err
	}

	sub := s.buildRecord(userID, p, remote)
	if err := s.repo.UpsertSubscriptionByExternalID(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SyncForUser is the manual-sync reconciliation path, used by the client
// after returning from checkout when the webhook may not have arrived yet.
// The upsert is keyed by user ID, not by the provider subscription ID.
func (s *Service) SyncForUser(ctx context.Context, userID uint, providerName, externalID string) (*models.BillingSubscription, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	remote, err := p.GetSubscription(ctx, externalID)
	if err != nil {
		return nil, err
	}

	sub := s.buildRecord(userID, p, remote)
	if err := s.repo.UpsertSubscriptionByUserID(sub); err != nil {
		return nil, err
	}

	// Completing checkout also completes the provisional account link.
	if remote.ExternalAccountID != "" {
		account := &models.BillingAccount{
			UserID:            userID,
			Provider:          p.Name(),
			ExternalAccountID: remote.ExternalAccountID,
			ExternalReference: remote.ExternalReference,
		}
		if err := s.repo.UpsertBillingAccount(account); err != nil {
			return sub, err
		}
	}
	return sub, nil
}

// CompleteCheckout links a finished checkout session to the user named by
// its external reference and runs the first reconciliation fetch. Stripe
// puts the external reference on the checkout session, not the subscription
// object, so ownership of later subscription events resolves through the
// billing account link persisted here.
func (s *Service) CompleteCheckout(ctx context.Context, providerName, externalReference, externalAccountID, subscriptionID string) (*models.BillingSubscription, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	ref := strings.TrimSpace(externalReference)
	if len(ref) < minExternalReferenceLen {
		return nil, ErrImplausibleReference
	}
	user, err := s.repo.GetUserByUUID(ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotResolved
		}
		return nil, err
	}

	account := &models.BillingAccount{
		UserID:            user.ID,
		Provider:          p.Name(),
		ExternalAccountID: strings.TrimSpace(externalAccountID),
		ExternalReference: ref,
	}
	if err := s.repo.UpsertBillingAccount(account); err != nil {
		return nil, err
	}

	return s.SyncForUser(ctx, user.ID, providerName, subscriptionID)
}

// Cancel requests cancellation from the provider, then marks the local
// record as cancellation-scheduled. Status stays unchanged so the premium
// evaluator keeps granting access through the grace period. If the provider
// call fails, local state is left untouched.
func (s *Service) Cancel(ctx context.Context, userID uint) (*models.BillingSubscription, error) {
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	if !IsPremiumStatus(sub.Status) {
		return nil, ErrNoActiveSubscription
	}

	p, err := s.provider(sub.Provider)
	if err != nil {
		return nil, err
	}
	if err := p.CancelSubscription(ctx, sub.ExternalSubscriptionID); err != nil {
		return nil, err
	}

	now := time.Now()
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubscription returns the user's subscription row, or
// ErrNoActiveSubscription when there is none.
func (s *Service) GetSubscription(ctx context.Context, userID uint) (*models.BillingSubscription, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	return sub, nil
}

// IsUserPremium evaluates paid-feature access for a user at the given time.
// No subscription row means no premium access, not an error.
func (s *Service) IsUserPremium(ctx context.Context, userID uint, now time.Time) (bool, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return SubscriptionIsPremium(sub, now), nil
}

// FinalizeExpired runs the expired-subscription sweep and returns how many
// rows were finalized.
func (s *Service) FinalizeExpired(ctx context.Context, now time.Time) (int64, error) {
	_ = ctx
	return s.repo.FinalizeExpired(now)
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

func (s *Service) resolveOwner(providerName string, remote *ProviderSubscription) (uint, error) {
	if ref := strings.TrimSpace(remote.ExternalReference); ref != "" {
		if len(ref) < minExternalReferenceLen {
			return 0, ErrImplausibleReference
		}
		user, err := s.repo.GetUserByUUID(ref)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrOwnerNotResolved
			}
			return 0, err
		}
		return user.ID, nil
	}

	if accID := strings.TrimSpace(remote.ExternalAccountID); accID != "" {
		account, err := s.repo.GetBillingAccountByExternalAccountID(providerName, accID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrOwnerNotResolved
			}
			return 0, err
		}
		return account.UserID, nil
	}

	return 0, ErrImplausibleReference
}

func (s *Service) buildRecord(userID uint, p Provider, remote *ProviderSubscription) *models.BillingSubscription {
	status := p.TranslateStatus(remote.Status)
	if status == "" {
		status = models.BillingStatusIncomplete
	}
	return &models.BillingSubscription{
		UserID:                 userID,
		Provider:               p.Name(),
		ExternalSubscriptionID: strings.TrimSpace(remote.ExternalID),
		Status:                 status,
		PlanTier:               s.tiers.ResolvePlanTier(remote.PlanID),
		CurrentPeriodStart:     remote.CurrentPeriodStart,
		CurrentPeriodEnd:       remote.CurrentPeriodEnd,
		CancelAtPeriodEnd:      remote.CancelAtPeriodEnd,
		RawPayloadJSON:         remote.RawJSON,
	}
}
