package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource is a stored document/file. The bytes live in S3 under ObjectKey;
// this row holds metadata only.
type Resource struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint           `gorm:"not null;index" json:"workspace_id"`
	ProjectID   *uint          `gorm:"index" json:"project_id,omitempty"`
	Name        string         `gorm:"type:varchar(250);not null" json:"name"`
	MimeType    string         `gorm:"type:varchar(100);not null;default:'application/octet-stream'" json:"mime_type"`
	SizeBytes   int64          `gorm:"not null;default:0" json:"size_bytes"`
	ObjectKey   string         `gorm:"type:varchar(500);not null" json:"-"`
	UploadedBy  uint           `gorm:"not null" json:"uploaded_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.New().String()
	}
	return nil
}
