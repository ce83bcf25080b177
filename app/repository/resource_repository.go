package repository

import (
	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
)

type resourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository creates a GORM-backed resource repository.
func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) Create(resource *models.Resource) error {
	return r.db.Create(resource).Error
}

func (r *resourceRepository) GetByUUID(uuid string) (*models.Resource, error) {
	var resource models.Resource
	if err := r.db.Where("uuid = ?", uuid).First(&resource).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepository) ListByWorkspace(workspaceID uint) ([]models.Resource, error) {
	var resources []models.Resource
	err := r.db.Where("workspace_id = ?", workspaceID).Order("created_at DESC").Find(&resources).Error
	return resources, err
}

// SumSizeByWorkspace totals stored bytes for quota enforcement.
func (r *resourceRepository) SumSizeByWorkspace(workspaceID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Resource{}).
		Where("workspace_id = ?", workspaceID).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&total).Error
	return total, err
}

func (r *resourceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Resource{}, id).Error
}
