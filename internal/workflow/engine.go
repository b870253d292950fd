package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qualisoftsn/workflow-api/internal/model"
	"gorm.io/gorm"
)

// Engine drives the approval sequence: one workflow instance holds an
// ordered set of steps and a single current step index; only the current
// step of an EN_COURS workflow accepts decisions, and approving the last
// step closes the instance.
type Engine struct {
	db        *gorm.DB
	lateAfter time.Duration
	now       func() time.Time
}

// NewEngine creates an engine. A non-positive lateAfter falls back to
// DefaultLateAfter.
func NewEngine(db *gorm.DB, lateAfter time.Duration) *Engine {
	if lateAfter <= 0 {
		lateAfter = DefaultLateAfter
	}
	return &Engine{db: db, lateAfter: lateAfter, now: time.Now}
}

// InitiateRequest binds a validated step definition to one business
// entity. An empty IdempotencyKey gets a generated one, so only
// client-supplied keys deduplicate.
type InitiateRequest struct {
	EntityID       string
	EntityType     string
	IdempotencyKey string
	Steps          []DraftStep
}

// Instance is a workflow together with its ordered steps.
type Instance struct {
	Workflow model.WorkflowModel `json:"workflow"`
	Steps    []model.StepModel   `json:"steps"`
}

// eventPayload is the serialized body of an outbox event.
type eventPayload struct {
	WorkflowID string `json:"workflow_id"`
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	StepOrder  int    `json:"step_order,omitempty"`
	ApproverID string `json:"approver_id,omitempty"`
	Label      string `json:"label,omitempty"`
}

// Initiate persists a step definition as a new workflow instance. The
// workflow row and all step rows are written in one transaction; the
// first step becomes current. When a workflow with the same
// (tenant, idempotency key) already exists it is returned unchanged and
// created is false.
func (e *Engine) Initiate(ctx context.Context, tenantID, userID string, req *InitiateRequest) (inst *Instance, created bool, err error) {
	if req.EntityID == "" {
		return nil, false, &DraftError{Index: -1, Message: "entity ID is required"}
	}
	if req.EntityType == "" {
		return nil, false, &DraftError{Index: -1, Message: "entity type is required"}
	}

	draft := DraftFromSteps(req.Steps)
	if err := draft.Validate(); err != nil {
		return nil, false, err
	}
	steps := draft.Steps()

	idemKey := req.IdempotencyKey
	if idemKey == "" {
		idemKey = uuid.New().String()
	} else {
		// replay of a known key returns the original instance
		if existing, err := e.findByIdempotencyKey(ctx, tenantID, idemKey); err == nil {
			return existing, false, nil
		} else if !errors.Is(err, ErrWorkflowNotFound) {
			return nil, false, err
		}
	}

	now := e.now()
	wf := model.WorkflowModel{
		ID:             generateWorkflowID(),
		TenantID:       tenantID,
		EntityID:       req.EntityID,
		EntityType:     req.EntityType,
		State:          StateEnCours,
		CurrentStep:    1,
		Version:        1,
		IdempotencyKey: idemKey,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	stepModels := make([]model.StepModel, 0, len(steps))
	for _, s := range steps {
		stepModels = append(stepModels, model.StepModel{
			ID:         generateStepID(),
			TenantID:   tenantID,
			WorkflowID: wf.ID,
			StepOrder:  s.Order,
			ApproverID: s.ApproverID,
			Label:      s.Label,
			Status:     StepEnAttente,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&wf).Error; err != nil {
			return err
		}
		if err := tx.Create(&stepModels).Error; err != nil {
			return fmt.Errorf("failed to create steps: %w", err)
		}
		if err := e.saveStateHistory(tx, &wf, "", StateEnCours, "workflow initiated", userID); err != nil {
			return err
		}
		return e.emitEvent(tx, &wf, EventStepAssigned, &stepModels[0])
	})
	if err != nil {
		// a concurrent replay may have won the unique index race
		if existing, ferr := e.findByIdempotencyKey(ctx, tenantID, idemKey); ferr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to initiate workflow: %w", err)
	}

	return &Instance{Workflow: wf, Steps: stepModels}, true, nil
}

// Get loads a workflow and its steps, ordered by step order. Workflows
// outside the caller's tenant are indistinguishable from missing ones.
func (e *Engine) Get(ctx context.Context, tenantID, id string) (*Instance, error) {
	var wf model.WorkflowModel
	err := e.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&wf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	steps, err := e.loadSteps(ctx, wf.ID)
	if err != nil {
		return nil, err
	}
	return &Instance{Workflow: wf, Steps: steps}, nil
}

// Decide applies an approval or rejection to a step. The step must be
// the current step of an EN_COURS workflow, the caller must be its
// assigned approver, and version must match the stored step version.
func (e *Engine) Decide(ctx context.Context, tenantID, userID, stepID, decision, comment string, version int) (*Instance, error) {
	if !ValidDecision(decision) {
		return nil, ErrInvalidDecision
	}

	var workflowID string
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var step model.StepModel
		if err := tx.Where("id = ? AND tenant_id = ?", stepID, tenantID).First(&step).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStepNotFound
			}
			return fmt.Errorf("failed to get step: %w", err)
		}
		workflowID = step.WorkflowID

		var wf model.WorkflowModel
		if err := tx.Where("id = ? AND tenant_id = ?", step.WorkflowID, tenantID).First(&wf).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkflowNotFound
			}
			return fmt.Errorf("failed to get workflow: %w", err)
		}

		if wf.State != StateEnCours {
			return ErrWorkflowClosed
		}
		if step.Status != StepEnAttente || step.StepOrder != wf.CurrentStep {
			return ErrStepNotActive
		}
		if step.ApproverID != userID {
			return ErrNotApprover
		}

		now := e.now()

		// the version guard in the WHERE clause is the conflict check:
		// a concurrent decision bumps the version first and wins
		res := tx.Model(&model.StepModel{}).
			Where("id = ? AND version = ?", step.ID, version).
			Updates(map[string]interface{}{
				"status":     decision,
				"comment":    comment,
				"decided_by": userID,
				"decided_at": now,
				"version":    version + 1,
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update step: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if decision == DecisionRejete {
			return e.closeWorkflow(tx, &wf, StateRejete, EventWorkflowRejected,
				fmt.Sprintf("step %d rejected", step.StepOrder), userID, now)
		}

		// approval of the last step closes the instance, otherwise the
		// next step becomes current
		var remaining int64
		if err := tx.Model(&model.StepModel{}).
			Where("workflow_id = ? AND step_order > ?", wf.ID, step.StepOrder).
			Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining steps: %w", err)
		}

		if remaining == 0 {
			return e.closeWorkflow(tx, &wf, StateApprouve, EventWorkflowCompleted,
				"all steps approved", userID, now)
		}

		res = tx.Model(&model.WorkflowModel{}).
			Where("id = ? AND version = ?", wf.ID, wf.Version).
			Updates(map[string]interface{}{
				"current_step": wf.CurrentStep + 1,
				"version":      wf.Version + 1,
				"updated_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to advance workflow: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		var next model.StepModel
		if err := tx.Where("workflow_id = ? AND step_order = ?", wf.ID, wf.CurrentStep+1).
			First(&next).Error; err != nil {
			return fmt.Errorf("failed to load next step: %w", err)
		}
		wf.CurrentStep++
		return e.emitEvent(tx, &wf, EventStepAssigned, &next)
	})
	if err != nil {
		return nil, err
	}

	return e.Get(ctx, tenantID, workflowID)
}

// Cancel moves an EN_COURS workflow to ANNULE. Only the initiator may
// cancel.
func (e *Engine) Cancel(ctx context.Context, tenantID, userID, workflowID, reason string) (*Instance, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wf model.WorkflowModel
		if err := tx.Where("id = ? AND tenant_id = ?", workflowID, tenantID).First(&wf).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkflowNotFound
			}
			return fmt.Errorf("failed to get workflow: %w", err)
		}

		if wf.State != StateEnCours {
			return ErrWorkflowClosed
		}
		if wf.CreatedBy != userID {
			return ErrNotCreator
		}

		if reason == "" {
			reason = "workflow cancelled"
		}
		return e.closeWorkflow(tx, &wf, StateAnnule, EventWorkflowCancelled, reason, userID, e.now())
	})
	if err != nil {
		return nil, err
	}

	return e.Get(ctx, tenantID, workflowID)
}

// Timeline returns the display projection of a workflow's steps.
func (e *Engine) Timeline(ctx context.Context, tenantID, id string, now time.Time) ([]TimelineStep, error) {
	inst, err := e.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineStep, 0, len(inst.Steps))
	for _, s := range inst.Steps {
		entries = append(entries, TimelineStep{
			Order:      s.StepOrder,
			ApproverID: s.ApproverID,
			Label:      s.Label,
			Status:     s.Status,
			Comment:    s.Comment,
			CreatedAt:  s.CreatedAt,
			DecidedAt:  s.DecidedAt,
		})
	}

	return DeriveTimeline(entries, inst.Workflow.CurrentStep, now, e.lateAfter), nil
}

// LateAfter returns the configured lateness threshold.
func (e *Engine) LateAfter() time.Duration {
	return e.lateAfter
}

// closeWorkflow moves a workflow to a terminal state inside tx, records
// the transition and emits the matching event.
func (e *Engine) closeWorkflow(tx *gorm.DB, wf *model.WorkflowModel, toState, eventType, reason, operator string, now time.Time) error {
	if !CanTransition(wf.State, toState) {
		return fmt.Errorf("invalid state transition: %s -> %s", wf.State, toState)
	}

	res := tx.Model(&model.WorkflowModel{}).
		Where("id = ? AND version = ?", wf.ID, wf.Version).
		Updates(map[string]interface{}{
			"state":        toState,
			"version":      wf.Version + 1,
			"updated_at":   now,
			"completed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to close workflow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}

	if err := e.saveStateHistory(tx, wf, wf.State, toState, reason, operator); err != nil {
		return err
	}

	wf.State = toState
	wf.Version++
	completedAt := now
	wf.CompletedAt = &completedAt

	return e.emitEvent(tx, wf, eventType, nil)
}

// saveStateHistory appends one transition row inside tx.
func (e *Engine) saveStateHistory(tx *gorm.DB, wf *model.WorkflowModel, from, to, reason, operator string) error {
	h := model.StateHistoryModel{
		ID:         generateHistoryID(),
		TenantID:   wf.TenantID,
		WorkflowID: wf.ID,
		FromState:  from,
		ToState:    to,
		Reason:     reason,
		Operator:   operator,
		CreatedAt:  e.now(),
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("failed to save state history: %w", err)
	}
	return nil
}

// emitEvent writes an outbox row inside tx. A nil step produces a
// workflow-level event addressed to the creator.
func (e *Engine) emitEvent(tx *gorm.DB, wf *model.WorkflowModel, eventType string, step *model.StepModel) error {
	payload := eventPayload{
		WorkflowID: wf.ID,
		EntityID:   wf.EntityID,
		EntityType: wf.EntityType,
	}
	recipient := wf.CreatedBy
	if step != nil {
		payload.StepOrder = step.StepOrder
		payload.ApproverID = step.ApproverID
		payload.Label = step.Label
		recipient = step.ApproverID
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	now := e.now()
	ev := model.EventModel{
		ID:          generateEventID(),
		TenantID:    wf.TenantID,
		WorkflowID:  wf.ID,
		Type:        eventType,
		RecipientID: recipient,
		Data:        data,
		Status:      "pending",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Create(&ev).Error; err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// findByIdempotencyKey loads the instance previously created under the
// key, if any.
func (e *Engine) findByIdempotencyKey(ctx context.Context, tenantID, key string) (*Instance, error) {
	var wf model.WorkflowModel
	err := e.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&wf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	steps, err := e.loadSteps(ctx, wf.ID)
	if err != nil {
		return nil, err
	}
	return &Instance{Workflow: wf, Steps: steps}, nil
}

// loadSteps returns the steps of a workflow ordered by step order.
func (e *Engine) loadSteps(ctx context.Context, workflowID string) ([]model.StepModel, error) {
	var steps []model.StepModel
	err := e.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("step_order ASC").
		Find(&steps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load steps: %w", err)
	}
	return steps, nil
}

func generateWorkflowID() string {
	return "wf-" + uuid.New().String()
}

func generateStepID() string {
	return "stp-" + uuid.New().String()
}

func generateHistoryID() string {
	return "hist-" + uuid.New().String()
}

func generateEventID() string {
	return "evt-" + uuid.New().String()
}
