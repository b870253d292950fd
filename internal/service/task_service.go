package service

import (
	"context"
	"time"

	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

// TaskService serves the per-approver inbox.
type TaskService interface {
	ListPending(ctx context.Context, filter *repository.TaskFilter) ([]*Task, int64, error)
}

// Task is one inbox entry: a pending step awaiting the caller's
// decision.
// @Description A pending approval step assigned to the current user
type Task struct {
	StepID     string    `json:"step_id"`
	WorkflowID string    `json:"workflow_id"`
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	StepOrder  int       `json:"step_order"`
	Label      string    `json:"label"`
	Version    int       `json:"version"` // echo back on the decision call
	CreatedAt  time.Time `json:"created_at"`
	Late       bool      `json:"late"`
}

type taskService struct {
	stepRepo  repository.StepRepository
	lateAfter time.Duration
}

// NewTaskService creates a task service.
func NewTaskService(stepRepo repository.StepRepository, lateAfter time.Duration) TaskService {
	if lateAfter <= 0 {
		lateAfter = workflow.DefaultLateAfter
	}
	return &taskService{stepRepo: stepRepo, lateAfter: lateAfter}
}

// ListPending returns the caller's actionable steps, oldest first. Only
// steps at the current position of an in-progress workflow are listed,
// so approvers never see work that is not yet theirs to do.
func (s *taskService) ListPending(ctx context.Context, filter *repository.TaskFilter) ([]*Task, int64, error) {
	tenantID := getTenantIDFromContext(ctx)
	userID := getUserIDFromContext(ctx)

	steps, total, err := s.stepRepo.FindPendingForApprover(tenantID, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	tasks := make([]*Task, 0, len(steps))
	for _, step := range steps {
		tasks = append(tasks, &Task{
			StepID:     step.ID,
			WorkflowID: step.WorkflowID,
			EntityID:   step.EntityID,
			EntityType: step.EntityType,
			StepOrder:  step.StepOrder,
			Label:      step.Label,
			Version:    step.Version,
			CreatedAt:  step.CreatedAt,
			Late:       workflow.IsLate(step.Status, step.CreatedAt, now, s.lateAfter),
		})
	}

	return tasks, total, nil
}
