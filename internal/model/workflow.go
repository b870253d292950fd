package model

import (
	"errors"
	"time"
)

// WorkflowModel is one run of an ordered approval sequence bound to a
// business entity (document, audit report, corrective action, ...).
// The pair (tenant_id, idempotency_key) is unique: replaying an initiate
// request cannot create a second instance.
type WorkflowModel struct {
	ID             string     `gorm:"primaryKey;type:varchar(64)"`
	TenantID       string     `gorm:"type:varchar(64);not null;index;index:idx_workflows_tenant_idem,unique"`
	EntityID       string     `gorm:"type:varchar(64);not null;index"`
	EntityType     string     `gorm:"type:varchar(32);not null;index"` // DOCUMENT, AUDIT, ACTION, ...
	State          string     `gorm:"type:varchar(32);not null;index"` // EN_COURS/APPROUVE/REJETE/ANNULE
	CurrentStep    int        `gorm:"type:int;not null;default:1"`     // 1-based order of the active step
	Version        int        `gorm:"type:int;not null;default:1"`     // optimistic lock
	IdempotencyKey string     `gorm:"type:varchar(128);not null;index:idx_workflows_tenant_idem,unique"`
	CreatedBy      string     `gorm:"type:varchar(64);index"`
	CreatedAt      time.Time  `gorm:"not null;index"`
	UpdatedAt      time.Time  `gorm:"not null;index"`
	CompletedAt    *time.Time `gorm:"index"`
}

// TableName sets the table name.
func (WorkflowModel) TableName() string {
	return "workflows"
}

// Validate validates the workflow model.
func (wm *WorkflowModel) Validate() error {
	if wm.ID == "" {
		return errors.New("workflow ID is required")
	}
	if wm.TenantID == "" {
		return errors.New("tenant ID is required")
	}
	if wm.EntityID == "" {
		return errors.New("entity ID is required")
	}
	if wm.EntityType == "" {
		return errors.New("entity type is required")
	}
	if wm.State == "" {
		return errors.New("workflow state is required")
	}
	if wm.CurrentStep < 1 {
		return errors.New("current step must be positive")
	}
	return nil
}
