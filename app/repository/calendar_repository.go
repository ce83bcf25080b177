package repository

import (
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type calendarRepository struct {
	db *gorm.DB
}

// NewCalendarRepository creates a GORM-backed calendar repository.
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) CreateEvent(event *models.CalendarEvent) error {
	return r.db.Create(event).Error
}

func (r *calendarRepository) GetEventByUUID(uuid string) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	if err := r.db.Where("uuid = ?", uuid).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *calendarRepository) ListEventsInRange(workspaceID uint, from, to time.Time) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	err := r.db.Where("workspace_id = ? AND starts_at < ? AND ends_at >= ?", workspaceID, to, from).
		Order("starts_at ASC").
		Find(&events).Error
	return events, err
}

func (r *calendarRepository) ListEvents(workspaceID uint) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	err := r.db.Where("workspace_id = ?", workspaceID).Order("starts_at ASC").Find(&events).Error
	return events, err
}

func (r *calendarRepository) UpdateEvent(event *models.CalendarEvent) error {
	return r.db.Save(event).Error
}

func (r *calendarRepository) DeleteEvent(id uint) error {
	return r.db.Delete(&models.CalendarEvent{}, id).Error
}

// UpsertFeedEvent writes an imported event keyed by (feed_id, ics_uid) so a
// feed refresh updates events in place instead of duplicating them.
func (r *calendarRepository) UpsertFeedEvent(event *models.CalendarEvent) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "feed_id"},
			{Name: "ics_uid"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"description",
			"location",
			"starts_at",
			"ends_at",
			"all_day",
			"updated_at",
		}),
	}).Create(event).Error
}

func (r *calendarRepository) CreateFeed(feed *models.CalendarFeed) error {
	return r.db.Create(feed).Error
}

func (r *calendarRepository) GetFeedByID(id uint) (*models.CalendarFeed, error) {
	var feed models.CalendarFeed
	if err := r.db.First(&feed, id).Error; err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *calendarRepository) ListFeeds(workspaceID uint) ([]models.CalendarFeed, error) {
	var feeds []models.CalendarFeed
	err := r.db.Where("workspace_id = ?", workspaceID).Find(&feeds).Error
	return feeds, err
}

func (r *calendarRepository) ListAllFeeds() ([]models.CalendarFeed, error) {
	var feeds []models.CalendarFeed
	err := r.db.Find(&feeds).Error
	return feeds, err
}

func (r *calendarRepository) SaveFeed(feed *models.CalendarFeed) error {
	return r.db.Save(feed).Error
}

func (r *calendarRepository) DeleteFeed(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feed_id = ?", id).Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CalendarFeed{}, id).Error
	})
}
