package service

import (
	"context"
	"fmt"
	"time"

	"github.com/qualisoftsn/workflow-api/internal/metrics"
	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

// WorkflowService drives workflow instances on behalf of the API layer.
type WorkflowService interface {
	Initiate(ctx context.Context, req *InitiateWorkflowRequest) (*workflow.Instance, bool, error)
	Get(ctx context.Context, id string) (*workflow.Instance, error)
	List(ctx context.Context, filter *repository.WorkflowFilter) ([]*model.WorkflowModel, int64, error)
	Decide(ctx context.Context, stepID string, req *DecisionRequest) (*workflow.Instance, error)
	Cancel(ctx context.Context, id string, reason string) (*workflow.Instance, error)
	Timeline(ctx context.Context, id string) ([]workflow.TimelineStep, error)
	History(ctx context.Context, id string) ([]*model.StateHistoryModel, error)
}

// InitiateWorkflowRequest creates a workflow instance.
// @Description Parameters for initiating an approval workflow
type InitiateWorkflowRequest struct {
	EntityID       string               `json:"entity_id" example:"doc-001" binding:"required"`
	EntityType     string               `json:"entity_type" example:"DOCUMENT" binding:"required"`
	IdempotencyKey string               `json:"idempotency_key" example:"b7f8e1a2"` // optional; replays return the original instance
	Steps          []workflow.DraftStep `json:"steps" binding:"required"`
}

// DecisionRequest processes one step.
// @Description Parameters for approving or rejecting a step
type DecisionRequest struct {
	Decision string `json:"decision" example:"APPROUVE" binding:"required"` // APPROUVE or REJETE
	Comment  string `json:"comment" example:"Relu et validé"`
	Version  int    `json:"version" example:"1" binding:"required"` // expected step version
}

// CancelRequest cancels a workflow.
// @Description Parameters for cancelling a workflow
type CancelRequest struct {
	Reason string `json:"reason" example:"Document obsolète"`
}

type workflowService struct {
	engine       *workflow.Engine
	workflowRepo repository.WorkflowRepository
	historyRepo  repository.StateHistoryRepository
	auditLogSvc  AuditLogService
}

// NewWorkflowService creates a workflow service.
func NewWorkflowService(engine *workflow.Engine, workflowRepo repository.WorkflowRepository, historyRepo repository.StateHistoryRepository, auditLogSvc AuditLogService) WorkflowService {
	return &workflowService{
		engine:       engine,
		workflowRepo: workflowRepo,
		historyRepo:  historyRepo,
		auditLogSvc:  auditLogSvc,
	}
}

// Initiate validates the step definition and creates the instance. The
// returned bool is false when an idempotent replay matched an existing
// instance.
func (s *workflowService) Initiate(ctx context.Context, req *InitiateWorkflowRequest) (*workflow.Instance, bool, error) {
	tenantID := getTenantIDFromContext(ctx)
	userID := getUserIDFromContext(ctx)

	inst, created, err := s.engine.Initiate(ctx, tenantID, userID, &workflow.InitiateRequest{
		EntityID:       req.EntityID,
		EntityType:     req.EntityType,
		IdempotencyKey: req.IdempotencyKey,
		Steps:          req.Steps,
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.RecordWorkflowInitiated()

		if s.auditLogSvc != nil && userID != "" {
			details := fmt.Sprintf(`{"workflow_id":"%s","entity_id":"%s","entity_type":"%s","steps":%d}`,
				inst.Workflow.ID, inst.Workflow.EntityID, inst.Workflow.EntityType, len(inst.Steps))
			_ = s.auditLogSvc.RecordAction(ctx, tenantID, userID, "initiate", "workflow", inst.Workflow.ID, details)
		}
	}

	return inst, created, nil
}

// Get returns a workflow with its steps.
func (s *workflowService) Get(ctx context.Context, id string) (*workflow.Instance, error) {
	return s.engine.Get(ctx, getTenantIDFromContext(ctx), id)
}

// List returns workflows matching the filter.
func (s *workflowService) List(ctx context.Context, filter *repository.WorkflowFilter) ([]*model.WorkflowModel, int64, error) {
	return s.workflowRepo.FindByFilter(getTenantIDFromContext(ctx), filter)
}

// Decide approves or rejects a step.
func (s *workflowService) Decide(ctx context.Context, stepID string, req *DecisionRequest) (*workflow.Instance, error) {
	tenantID := getTenantIDFromContext(ctx)
	userID := getUserIDFromContext(ctx)

	inst, err := s.engine.Decide(ctx, tenantID, userID, stepID, req.Decision, req.Comment, req.Version)
	if err != nil {
		return nil, err
	}

	metrics.RecordDecision(req.Decision)

	if s.auditLogSvc != nil && userID != "" {
		action := "approve"
		if req.Decision == workflow.DecisionRejete {
			action = "reject"
		}
		details := fmt.Sprintf(`{"step_id":"%s","workflow_id":"%s","decision":"%s","comment":"%s"}`,
			stepID, inst.Workflow.ID, req.Decision, req.Comment)
		_ = s.auditLogSvc.RecordAction(ctx, tenantID, userID, action, "step", stepID, details)
	}

	return inst, nil
}

// Cancel moves a workflow to ANNULE.
func (s *workflowService) Cancel(ctx context.Context, id string, reason string) (*workflow.Instance, error) {
	tenantID := getTenantIDFromContext(ctx)
	userID := getUserIDFromContext(ctx)

	inst, err := s.engine.Cancel(ctx, tenantID, userID, id, reason)
	if err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil && userID != "" {
		details := fmt.Sprintf(`{"workflow_id":"%s","reason":"%s"}`, id, reason)
		_ = s.auditLogSvc.RecordAction(ctx, tenantID, userID, "cancel", "workflow", id, details)
	}

	return inst, nil
}

// Timeline returns the display projection of a workflow.
func (s *workflowService) Timeline(ctx context.Context, id string) ([]workflow.TimelineStep, error) {
	return s.engine.Timeline(ctx, getTenantIDFromContext(ctx), id, time.Now())
}

// History returns a workflow's state transitions.
func (s *workflowService) History(ctx context.Context, id string) ([]*model.StateHistoryModel, error) {
	tenantID := getTenantIDFromContext(ctx)
	// a 404 on the workflow beats an empty history for unknown ids
	if _, err := s.engine.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.historyRepo.FindByWorkflowID(tenantID, id)
}
