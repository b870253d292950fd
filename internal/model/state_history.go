package model

import (
	"errors"
	"time"
)

// StateHistoryModel records one workflow state transition.
type StateHistoryModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	TenantID   string    `gorm:"type:varchar(64);not null;index"`
	WorkflowID string    `gorm:"type:varchar(64);not null;index"`
	FromState  string    `gorm:"type:varchar(32)"`
	ToState    string    `gorm:"type:varchar(32);not null"`
	Reason     string    `gorm:"type:text"`
	Operator   string    `gorm:"type:varchar(64);not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName sets the table name.
func (StateHistoryModel) TableName() string {
	return "state_history"
}

// Validate validates the state history model.
func (shm *StateHistoryModel) Validate() error {
	if shm.ID == "" {
		return errors.New("history ID is required")
	}
	if shm.WorkflowID == "" {
		return errors.New("workflow ID is required")
	}
	if shm.ToState == "" {
		return errors.New("to state is required")
	}
	if shm.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
