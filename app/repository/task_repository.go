package repository

import (
	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
)

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a GORM-backed task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

func (r *taskRepository) GetByUUID(uuid string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("uuid = ?", uuid).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByProject(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Where("project_id = ?", projectID).
		Order("board_column ASC, position ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

func (r *taskRepository) Delete(id uint) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// MaxPositionInColumn returns the highest position in a column so new tasks
// can be appended after it. Zero when the column is empty.
func (r *taskRepository) MaxPositionInColumn(projectID uint, column string) (float64, error) {
	var max float64
	err := r.db.Model(&models.Task{}).
		Where("project_id = ? AND board_column = ?", projectID, column).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max, err
}
