package models

import "time"

// PushSubscription stores a browser Web Push endpoint for a user. One user
// may have several (one per browser/device).
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Endpoint  string    `gorm:"type:varchar(500);not null;uniqueIndex:ux_push_subscriptions_endpoint,length:191" json:"endpoint"`
	P256dh    string    `gorm:"type:varchar(200);not null" json:"-"`
	Auth      string    `gorm:"type:varchar(100);not null" json:"-"`
	UserAgent string    `gorm:"type:varchar(250)" json:"user_agent"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
