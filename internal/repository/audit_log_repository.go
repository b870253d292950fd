package repository

import (
	"github.com/qualisoftsn/workflow-api/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository is the audit trail interface.
type AuditLogRepository interface {
	Save(log *model.AuditLogModel) error
	FindByResource(tenantID, resourceType, resourceID string) ([]*model.AuditLogModel, error)
	FindByUser(tenantID, userID string, limit int) ([]*model.AuditLogModel, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates an audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Save saves an audit log entry.
func (r *auditLogRepository) Save(log *model.AuditLogModel) error {
	return r.db.Save(log).Error
}

// FindByResource finds audit entries for one resource, newest first.
func (r *auditLogRepository) FindByResource(tenantID, resourceType, resourceID string) ([]*model.AuditLogModel, error) {
	var logs []*model.AuditLogModel
	err := r.db.Where("tenant_id = ? AND resource_type = ? AND resource_id = ?", tenantID, resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

// FindByUser finds a user's audit entries, newest first.
func (r *auditLogRepository) FindByUser(tenantID, userID string, limit int) ([]*model.AuditLogModel, error) {
	query := r.db.Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var logs []*model.AuditLogModel
	err := query.Find(&logs).Error
	return logs, err
}
