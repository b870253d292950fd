package repository

import (
	"time"

	"github.com/qualisoftsn/workflow-api/internal/model"
	"gorm.io/gorm"
)

// EventRepository is the notification outbox interface.
type EventRepository interface {
	Save(event *model.EventModel) error
	FindPending(limit int) ([]*model.EventModel, error)
	MarkSuccess(id string) error
	MarkFailed(id string, maxRetries int) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates an event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Save saves an event.
func (r *eventRepository) Save(event *model.EventModel) error {
	return r.db.Save(event).Error
}

// FindPending returns up to limit undelivered events, oldest first.
func (r *eventRepository) FindPending(limit int) ([]*model.EventModel, error) {
	var events []*model.EventModel
	query := r.db.Where("status = ?", "pending").Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}

// MarkSuccess marks an event as delivered.
func (r *eventRepository) MarkSuccess(id string) error {
	return r.db.Model(&model.EventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     "success",
			"updated_at": time.Now(),
		}).Error
}

// MarkFailed bumps the retry count; events past maxRetries move to the
// failed status and are no longer picked up.
func (r *eventRepository) MarkFailed(id string, maxRetries int) error {
	var event model.EventModel
	if err := r.db.Where("id = ?", id).First(&event).Error; err != nil {
		return err
	}

	status := "pending"
	if event.RetryCount+1 >= maxRetries {
		status = "failed"
	}

	return r.db.Model(&model.EventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"retry_count": event.RetryCount + 1,
			"updated_at":  time.Now(),
		}).Error
}
