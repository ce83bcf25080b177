package repository

import (
	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
)

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a GORM-backed chat repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateChannel(channel *models.ChatChannel) error {
	return r.db.Create(channel).Error
}

func (r *chatRepository) GetChannelByUUID(uuid string) (*models.ChatChannel, error) {
	var channel models.ChatChannel
	if err := r.db.Where("uuid = ?", uuid).First(&channel).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *chatRepository) ListChannels(workspaceID uint) ([]models.ChatChannel, error) {
	var channels []models.ChatChannel
	err := r.db.Where("workspace_id = ?", workspaceID).Order("name ASC").Find(&channels).Error
	return channels, err
}

func (r *chatRepository) DeleteChannel(id uint) error {
	return r.db.Delete(&models.ChatChannel{}, id).Error
}

func (r *chatRepository) CreateMessage(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

// ListMessages pages backwards through channel history. beforeID == 0 means
// start from the newest message.
func (r *chatRepository) ListMessages(channelID uint, beforeID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.db.Where("channel_id = ?", channelID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var messages []models.ChatMessage
	err := q.Order("id DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

// RecentMessages returns the newest messages in chronological order, used
// by the summarization endpoint.
func (r *chatRepository) RecentMessages(channelID uint, limit int) ([]models.ChatMessage, error) {
	messages, err := r.ListMessages(channelID, 0, limit)
	if err != nil {
		return nil, err
	}
	// reverse newest-first into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
