package model

import (
	"errors"
	"time"
)

// EventModel is one entry in the notification outbox. Rows are written in
// the same transaction as the workflow mutation that caused them and
// drained asynchronously by the dispatcher.
type EventModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	TenantID    string    `gorm:"type:varchar(64);not null;index"`
	WorkflowID  string    `gorm:"type:varchar(64);not null;index"`
	Type        string    `gorm:"type:varchar(32);not null;index"` // step_assigned/workflow_completed/workflow_rejected/workflow_cancelled
	RecipientID string    `gorm:"type:varchar(64);index"`          // target user, empty for broadcast
	Data        []byte    `gorm:"type:jsonb;not null"`
	Status      string    `gorm:"type:varchar(32);not null;default:'pending';index"` // pending/success/failed
	RetryCount  int       `gorm:"type:int;default:0"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (EventModel) TableName() string {
	return "events"
}

// Validate validates the event model.
func (em *EventModel) Validate() error {
	if em.ID == "" {
		return errors.New("event ID is required")
	}
	if em.WorkflowID == "" {
		return errors.New("workflow ID is required")
	}
	if em.Type == "" {
		return errors.New("event type is required")
	}
	if len(em.Data) == 0 {
		return errors.New("event data is required")
	}
	if em.Status == "" {
		em.Status = "pending"
	}
	return nil
}
