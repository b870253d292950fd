package repository

import (
	"github.com/qualisoftsn/workflow-api/internal/model"
	"gorm.io/gorm"
)

// WorkflowRepository is the workflow query interface.
type WorkflowRepository interface {
	FindByID(tenantID, id string) (*model.WorkflowModel, error)
	FindByFilter(tenantID string, filter *WorkflowFilter) ([]*model.WorkflowModel, int64, error)
}

// WorkflowFilter narrows workflow listings. Page is 1-based; a zero
// PageSize disables pagination.
type WorkflowFilter struct {
	State      *string
	EntityType *string
	EntityID   *string
	CreatedBy  *string
	Page       int
	PageSize   int
}

type workflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository creates a workflow repository.
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

// FindByID finds a workflow by ID within a tenant.
func (r *workflowRepository) FindByID(tenantID, id string) (*model.WorkflowModel, error) {
	var wf model.WorkflowModel
	if err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&wf).Error; err != nil {
		return nil, err
	}
	return &wf, nil
}

// FindByFilter finds workflows matching the filter, newest first.
func (r *workflowRepository) FindByFilter(tenantID string, filter *WorkflowFilter) ([]*model.WorkflowModel, int64, error) {
	query := r.db.Model(&model.WorkflowModel{}).Where("tenant_id = ?", tenantID)

	if filter != nil {
		if filter.State != nil {
			query = query.Where("state = ?", *filter.State)
		}
		if filter.EntityType != nil {
			query = query.Where("entity_type = ?", *filter.EntityType)
		}
		if filter.EntityID != nil {
			query = query.Where("entity_id = ?", *filter.EntityID)
		}
		if filter.CreatedBy != nil {
			query = query.Where("created_by = ?", *filter.CreatedBy)
		}
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

	var workflows []*model.WorkflowModel
	err := query.Order("created_at DESC").Find(&workflows).Error
	return workflows, total, err
}
