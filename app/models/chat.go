package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatChannel is a named message stream inside a workspace.
type ChatChannel struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint           `gorm:"not null;index:ux_chat_channels_ws_name,unique,priority:1" json:"workspace_id"`
	Name        string         `gorm:"type:varchar(100);not null;index:ux_chat_channels_ws_name,unique,priority:2" json:"name" validate:"required,min=1,max=100"`
	Topic       string         `gorm:"type:varchar(250)" json:"topic"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *ChatChannel) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	return nil
}

// ChatMessage is a persisted chat message. Delivery to connected clients
// goes through Redis pub/sub after the row is written.
type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ChannelID   uint      `gorm:"not null;index:idx_chat_messages_channel_created,priority:1" json:"channel_id"`
	WorkspaceID uint      `gorm:"not null;index" json:"workspace_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Body        string    `gorm:"type:text;not null" json:"body" validate:"required,min=1,max=10000"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_chat_messages_channel_created,priority:2" json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.New().String()
	}
	return nil
}
