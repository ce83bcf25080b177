package repository

import (
	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a GORM-backed project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *projectRepository) GetByUUID(uuid string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Where("uuid = ?", uuid).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListByWorkspace(workspaceID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Where("workspace_id = ?", workspaceID).Order("created_at ASC").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) CountByWorkspace(workspaceID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Project{}).Where("workspace_id = ?", workspaceID).Count(&count).Error
	return count, err
}

func (r *projectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

func (r *projectRepository) Delete(id uint) error {
	return r.db.Delete(&models.Project{}, id).Error
}
