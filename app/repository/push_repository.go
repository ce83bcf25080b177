package repository

import (
	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pushSubscriptionRepository struct {
	db *gorm.DB
}

// NewPushSubscriptionRepository creates a GORM-backed push subscription repository.
func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

// Upsert registers a push endpoint, refreshing keys if the browser
// re-subscribes with the same endpoint.
func (r *pushSubscriptionRepository) Upsert(sub *models.PushSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"p256dh",
			"auth",
			"user_agent",
		}),
	}).Create(sub).Error
}

func (r *pushSubscriptionRepository) ListByUser(userID uint) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(userID uint, endpoint string) error {
	return r.db.Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{}).Error
}
