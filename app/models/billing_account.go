package models

import "time"

// BillingAccount stores the provisional mapping from a local user to an
// external billing identity, created when checkout is initiated and
// completed by the first webhook or manual sync.
type BillingAccount struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index:ux_billing_accounts_user_provider,unique,priority:1" json:"user_id"`
	Provider          string    `gorm:"type:varchar(20);not null;index:ux_billing_accounts_user_provider,unique,priority:2" json:"provider"`
	ExternalAccountID string    `gorm:"type:varchar(191);not null;default:'';index" json:"external_account_id"`
	ExternalReference string    `gorm:"type:varchar(64);not null;index" json:"external_reference"`
	CheckoutSessionID string    `gorm:"type:varchar(191);default:''" json:"checkout_session_id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
