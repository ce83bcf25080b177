package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalendarEvent is a workspace calendar entry. Events imported from an
// external ICS feed carry FeedID + ICSUID so re-imports upsert in place.
type CalendarEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint           `gorm:"not null;index" json:"workspace_id"`
	Title       string         `gorm:"type:varchar(250);not null" json:"title" validate:"required,min=1,max=250"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"type:varchar(250)" json:"location"`
	StartsAt    time.Time      `gorm:"type:timestamp;not null;index" json:"starts_at"`
	EndsAt      time.Time      `gorm:"type:timestamp;not null" json:"ends_at"`
	AllDay      bool           `gorm:"default:false" json:"all_day"`
	FeedID      *uint          `gorm:"index:ux_calendar_events_feed_uid,unique,priority:1" json:"feed_id,omitempty"`
	ICSUID      string         `gorm:"type:varchar(250);default:'';index:ux_calendar_events_feed_uid,unique,priority:2" json:"ics_uid,omitempty"`
	CreatedBy   uint           `json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *CalendarEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	return nil
}

// CalendarFeed is an external ICS subscription refreshed in the background.
type CalendarFeed struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	WorkspaceID  uint       `gorm:"not null;index" json:"workspace_id"`
	Name         string     `gorm:"type:varchar(150);not null" json:"name"`
	URL          string     `gorm:"type:varchar(500);not null" json:"url" validate:"required,url"`
	LastSyncedAt *time.Time `gorm:"type:timestamp;default:null" json:"last_synced_at,omitempty"`
	LastError    string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedBy    uint       `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
