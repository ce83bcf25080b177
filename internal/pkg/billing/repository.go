package billing

import (
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	UpsertSubscriptionByExternalID(sub *models.BillingSubscription) error
	UpsertSubscriptionByUserID(sub *models.BillingSubscription) error
	GetSubscriptionByUserID(userID uint) (*models.BillingSubscription, error)
	SaveSubscription(sub *models.BillingSubscription) error
	FinalizeExpired(now time.Time) (int64, error)

	UpsertBillingAccount(account *models.BillingAccount) error
	GetBillingAccountByExternalAccountID(provider, externalAccountID string) (*models.BillingAccount, error)

	GetUserByUUID(uuid string) (*models.User, error)

	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var subscriptionUpdateColumns = []string{
	"user_id",
	"provider",
	"external_subscription_id",
	"status",
	"plan_tier",
	"current_period_start",
	"current_period_end",
	"cancel_at_period_end",
	"raw_payload_json",
	"updated_at",
}

// UpsertSubscriptionByExternalID is the webhook write path: the conflict key
// is the provider subscription ID, so duplicate and out-of-order
// notifications collapse into a last-write-wins row.
func (r *gormRepository) UpsertSubscriptionByExternalID(sub *models.BillingSubscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "external_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns(subscriptionUpdateColumns),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("provider = ? AND external_subscription_id = ?", sub.Provider, sub.ExternalSubscriptionID).
		First(sub).Error
}

// UpsertSubscriptionByUserID is the manual-sync write path, keyed by the
// owning user instead of the provider subscription ID.
func (r *gormRepository) UpsertSubscriptionByUserID(sub *models.BillingSubscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(subscriptionUpdateColumns),
	}).Create(sub).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) GetSubscriptionByUserID(userID uint) (*models.BillingSubscription, error) {
	var sub models.BillingSubscription
	if err := r.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(sub *models.BillingSubscription) error {
	return r.db.Save(sub).Error
}

// FinalizeExpired closes out canceled subscriptions whose paid period has
// elapsed. A single UPDATE stands in for the stored-procedure contract: input is
// "now", output is the number of rows finalized.
func (r *gormRepository) FinalizeExpired(now time.Time) (int64, error) {
	tx := r.db.Model(&models.BillingSubscription{}).
		Where("status IN ?", []string{
			models.BillingStatusActive,
			models.BillingStatusTrialing,
			models.BillingStatusPastDue,
		}).
		Where("cancel_at_period_end = ?", true).
		Where("current_period_end IS NOT NULL AND current_period_end < ?", now).
		Where("ended_at IS NULL").
		Updates(map[string]interface{}{
			"status":   models.BillingStatusCanceled,
			"ended_at": now,
		})
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) UpsertBillingAccount(account *models.BillingAccount) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "provider"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_account_id",
			"external_reference",
			"checkout_session_id",
			"updated_at",
		}),
	}).Create(account).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ? AND provider = ?", account.UserID, account.Provider).
		First(account).Error
}

func (r *gormRepository) GetBillingAccountByExternalAccountID(provider, externalAccountID string) (*models.BillingAccount, error) {
	var account models.BillingAccount
	err := r.db.Where("provider = ? AND external_account_id = ?", provider, externalAccountID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) GetUserByUUID(uuid string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
