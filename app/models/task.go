package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kanban columns. Tasks are ordered inside a column by Position.
const (
	TaskColumnTodo       = "todo"
	TaskColumnInProgress = "in_progress"
	TaskColumnReview     = "review"
	TaskColumnDone       = "done"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ProjectID   uint           `gorm:"not null;index:idx_tasks_project_column,priority:1" json:"project_id"`
	WorkspaceID uint           `gorm:"not null;index" json:"workspace_id"`
	Title       string         `gorm:"type:varchar(250);not null" json:"title" validate:"required,min=1,max=250"`
	Description string         `gorm:"type:text" json:"description"`
	Column      string         `gorm:"column:board_column;type:varchar(20);not null;default:'todo';index:idx_tasks_project_column,priority:2" json:"column"`
	Position    float64        `gorm:"not null;default:0" json:"position"`
	Priority    string         `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	AssigneeID  *uint          `gorm:"index" json:"assignee_id,omitempty"`
	DueAt       *time.Time     `gorm:"type:timestamp;default:null" json:"due_at,omitempty"`
	Labels      string         `gorm:"type:varchar(500)" json:"labels"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.New().String()
	}
	return nil
}

// ValidTaskColumn reports whether column is a known Kanban column.
func ValidTaskColumn(column string) bool {
	switch column {
	case TaskColumnTodo, TaskColumnInProgress, TaskColumnReview, TaskColumnDone:
		return true
	default:
		return false
	}
}
