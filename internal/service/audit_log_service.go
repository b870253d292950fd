package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/repository"
)

// AuditLogService records user-visible mutations for compliance review.
type AuditLogService interface {
	RecordAction(ctx context.Context, tenantID, userID, action, resourceType, resourceID string, details interface{}) error
}

type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService creates an audit log service.
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{auditRepo: auditRepo}
}

// RecordAction records one action.
func (s *auditLogService) RecordAction(
	ctx context.Context,
	tenantID string,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	if s.auditRepo == nil {
		return nil
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	requestID := ""
	if req := ctx.Value("request_id"); req != nil {
		requestID = req.(string)
	}

	ip := ""
	if req := ctx.Value("ip"); req != nil {
		ip = req.(string)
	}

	userAgent := ""
	if req := ctx.Value("user_agent"); req != nil {
		userAgent = req.(string)
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    requestID,
		IP:           ip,
		UserAgent:    userAgent,
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}
