package models

import "time"

// Workspace membership roles, ordered by privilege.
const (
	WorkspaceRoleOwner  = "owner"
	WorkspaceRoleAdmin  = "admin"
	WorkspaceRoleMember = "member"
	WorkspaceRoleGuest  = "guest"
)

// WorkspaceMember links a user to a workspace with a role.
type WorkspaceMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID uint      `gorm:"not null;index:ux_workspace_members_ws_user,unique,priority:1" json:"workspace_id"`
	UserID      uint      `gorm:"not null;index:ux_workspace_members_ws_user,unique,priority:2;index" json:"user_id"`
	Role        string    `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// WorkspaceInvite is a pending email invitation into a workspace.
type WorkspaceInvite struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkspaceID uint       `gorm:"not null;index" json:"workspace_id"`
	Email       string     `gorm:"type:varchar(200);not null;index" json:"email"`
	Role        string     `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Token       string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	InvitedBy   uint       `gorm:"not null" json:"invited_by"`
	AcceptedAt  *time.Time `gorm:"type:timestamp;default:null" json:"accepted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// RoleRank orders roles so "at least admin" checks stay in one place.
func RoleRank(role string) int {
	switch role {
	case WorkspaceRoleOwner:
		return 3
	case WorkspaceRoleAdmin:
		return 2
	case WorkspaceRoleMember:
		return 1
	case WorkspaceRoleGuest:
		return 0
	default:
		return -1
	}
}
