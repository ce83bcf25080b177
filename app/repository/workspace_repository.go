package repository

import (
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
)

type workspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a GORM-backed workspace repository.
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

// Create inserts the workspace and its owner membership in one transaction.
func (r *workspaceRepository) Create(workspace *models.Workspace) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		member := &models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      workspace.OwnerID,
			Role:        models.WorkspaceRoleOwner,
		}
		return tx.Create(member).Error
	})
}

func (r *workspaceRepository) GetByID(id uint) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.First(&ws, id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) GetByUUID(uuid string) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.Where("uuid = ?", uuid).First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) GetBySlug(slug string) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.Where("slug = ?", slug).First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) ListByUser(userID uint) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := r.db.
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ?", userID).
		Find(&workspaces).Error
	return workspaces, err
}

func (r *workspaceRepository) Update(workspace *models.Workspace) error {
	return r.db.Save(workspace).Error
}

func (r *workspaceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Workspace{}, id).Error
}

func (r *workspaceRepository) AddMember(member *models.WorkspaceMember) error {
	return r.db.Create(member).Error
}

func (r *workspaceRepository) GetMember(workspaceID, userID uint) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	err := r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *workspaceRepository) ListMembers(workspaceID uint) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	err := r.db.Where("workspace_id = ?", workspaceID).Find(&members).Error
	return members, err
}

func (r *workspaceRepository) UpdateMemberRole(workspaceID, userID uint, role string) error {
	return r.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Update("role", role).Error
}

func (r *workspaceRepository) RemoveMember(workspaceID, userID uint) error {
	return r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.WorkspaceMember{}).Error
}

func (r *workspaceRepository) CountMembers(workspaceID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.WorkspaceMember{}).Where("workspace_id = ?", workspaceID).Count(&count).Error
	return count, err
}

func (r *workspaceRepository) CreateInvite(invite *models.WorkspaceInvite) error {
	return r.db.Create(invite).Error
}

func (r *workspaceRepository) GetInviteByToken(token string) (*models.WorkspaceInvite, error) {
	var invite models.WorkspaceInvite
	if err := r.db.Where("token = ? AND accepted_at IS NULL", token).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *workspaceRepository) MarkInviteAccepted(id uint) error {
	now := time.Now()
	return r.db.Model(&models.WorkspaceInvite{}).Where("id = ?", id).
		Update("accepted_at", &now).Error
}
