package repository

import (
	"github.com/qualisoftsn/workflow-api/internal/model"
	"gorm.io/gorm"
)

// StateHistoryRepository is the workflow transition log interface.
type StateHistoryRepository interface {
	Save(history *model.StateHistoryModel) error
	FindByWorkflowID(tenantID, workflowID string) ([]*model.StateHistoryModel, error)
}

type stateHistoryRepository struct {
	db *gorm.DB
}

// NewStateHistoryRepository creates a state history repository.
func NewStateHistoryRepository(db *gorm.DB) StateHistoryRepository {
	return &stateHistoryRepository{db: db}
}

// Save saves a state history entry.
func (r *stateHistoryRepository) Save(history *model.StateHistoryModel) error {
	return r.db.Save(history).Error
}

// FindByWorkflowID finds a workflow's transitions in chronological order.
func (r *stateHistoryRepository) FindByWorkflowID(tenantID, workflowID string) ([]*model.StateHistoryModel, error) {
	var history []*model.StateHistoryModel
	err := r.db.Where("tenant_id = ? AND workflow_id = ?", tenantID, workflowID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}
