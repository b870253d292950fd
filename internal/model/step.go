package model

import (
	"errors"
	"time"
)

// StepModel is a single ordered approval checkpoint within a workflow,
// assigned to one approver.
type StepModel struct {
	ID         string     `gorm:"primaryKey;type:varchar(64)"`
	TenantID   string     `gorm:"type:varchar(64);not null;index"`
	WorkflowID string     `gorm:"type:varchar(64);not null;index"`
	StepOrder  int        `gorm:"type:int;not null;index"` // 1..N, contiguous at creation
	ApproverID string     `gorm:"type:varchar(64);not null;index"`
	Label      string     `gorm:"type:varchar(255);not null"`
	Status     string     `gorm:"type:varchar(32);not null;index"` // EN_ATTENTE/APPROUVE/REJETE
	Comment    string     `gorm:"type:text"`
	Version    int        `gorm:"type:int;not null;default:1"` // optimistic lock
	DecidedBy  string     `gorm:"type:varchar(64)"`
	DecidedAt  *time.Time
	CreatedAt  time.Time  `gorm:"not null;index"`
	UpdatedAt  time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (StepModel) TableName() string {
	return "workflow_steps"
}

// Validate validates the step model.
func (sm *StepModel) Validate() error {
	if sm.ID == "" {
		return errors.New("step ID is required")
	}
	if sm.WorkflowID == "" {
		return errors.New("workflow ID is required")
	}
	if sm.StepOrder < 1 {
		return errors.New("step order must be positive")
	}
	if sm.ApproverID == "" {
		return errors.New("approver ID is required")
	}
	if sm.Status == "" {
		return errors.New("step status is required")
	}
	return nil
}
