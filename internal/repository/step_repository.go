package repository

import (
	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
	"gorm.io/gorm"
)

// StepRepository is the step query interface.
type StepRepository interface {
	FindByID(tenantID, id string) (*model.StepModel, error)
	FindByWorkflowID(workflowID string) ([]*model.StepModel, error)
	FindPendingForApprover(tenantID, approverID string, filter *TaskFilter) ([]*PendingStep, int64, error)
}

// TaskFilter narrows inbox listings.
type TaskFilter struct {
	EntityType *string
	Page       int
	PageSize   int
}

// PendingStep is an inbox row: a step joined with the workflow fields the
// approver needs to act.
type PendingStep struct {
	model.StepModel
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
}

type stepRepository struct {
	db *gorm.DB
}

// NewStepRepository creates a step repository.
func NewStepRepository(db *gorm.DB) StepRepository {
	return &stepRepository{db: db}
}

// FindByID finds a step by ID within a tenant.
func (r *stepRepository) FindByID(tenantID, id string) (*model.StepModel, error) {
	var step model.StepModel
	if err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&step).Error; err != nil {
		return nil, err
	}
	return &step, nil
}

// FindByWorkflowID finds all steps of a workflow ordered by step order.
func (r *stepRepository) FindByWorkflowID(workflowID string) ([]*model.StepModel, error) {
	var steps []*model.StepModel
	err := r.db.Where("workflow_id = ?", workflowID).
		Order("step_order ASC").
		Find(&steps).Error
	return steps, err
}

// FindPendingForApprover returns the approver's actionable steps: pending
// status, assigned to them, and sitting at the current step of a workflow
// still in progress. Steps behind the current one never appear, so an
// approver cannot act out of order. Oldest first.
func (r *stepRepository) FindPendingForApprover(tenantID, approverID string, filter *TaskFilter) ([]*PendingStep, int64, error) {
	query := r.db.Model(&model.StepModel{}).
		Select("workflow_steps.*, workflows.entity_id AS entity_id, workflows.entity_type AS entity_type").
		Joins("JOIN workflows ON workflows.id = workflow_steps.workflow_id").
		Where("workflow_steps.tenant_id = ?", tenantID).
		Where("workflow_steps.approver_id = ?", approverID).
		Where("workflow_steps.status = ?", workflow.StepEnAttente).
		Where("workflows.state = ?", workflow.StateEnCours).
		Where("workflow_steps.step_order = workflows.current_step")

	if filter != nil && filter.EntityType != nil {
		query = query.Where("workflows.entity_type = ?", *filter.EntityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter != nil && filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var steps []*PendingStep
	err := query.Order("workflow_steps.created_at ASC").Scan(&steps).Error
	return steps, total, err
}
