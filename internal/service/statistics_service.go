package service

import (
	"fmt"
	"time"

	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
	"gorm.io/gorm"
)

// StatisticsService aggregates workflow data for dashboards.
type StatisticsService interface {
	GetWorkflowStatistics(tenantID string) (*WorkflowStatistics, error)
	GetWorkflowsByState(tenantID string) ([]*WorkflowCountByState, error)
}

// WorkflowCountByState is a per-state count.
type WorkflowCountByState struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

// WorkflowStatistics is the dashboard summary.
// @Description Aggregate workflow figures for the tenant
type WorkflowStatistics struct {
	Total                    int64   `json:"total"`
	InProgress               int64   `json:"in_progress"`
	Approved                 int64   `json:"approved"`
	Rejected                 int64   `json:"rejected"`
	Cancelled                int64   `json:"cancelled"`
	ApprovalRate             float64 `json:"approval_rate"` // approved / (approved + rejected)
	AverageCompletionSeconds float64 `json:"average_completion_seconds"`
	LateSteps                int64   `json:"late_steps"`
}

type statisticsService struct {
	db        *gorm.DB
	lateAfter time.Duration
}

// NewStatisticsService creates a statistics service.
func NewStatisticsService(db *gorm.DB, lateAfter time.Duration) StatisticsService {
	if lateAfter <= 0 {
		lateAfter = workflow.DefaultLateAfter
	}
	return &statisticsService{db: db, lateAfter: lateAfter}
}

// GetWorkflowsByState counts a tenant's workflows per state.
func (s *statisticsService) GetWorkflowsByState(tenantID string) ([]*WorkflowCountByState, error) {
	var results []struct {
		State string
		Count int64
	}

	err := s.db.Model(&model.WorkflowModel{}).
		Select("state, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("state").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow statistics by state: %w", err)
	}

	stats := make([]*WorkflowCountByState, 0, len(results))
	for _, r := range results {
		stats = append(stats, &WorkflowCountByState{State: r.State, Count: r.Count})
	}
	return stats, nil
}

// GetWorkflowStatistics computes the dashboard summary for a tenant.
func (s *statisticsService) GetWorkflowStatistics(tenantID string) (*WorkflowStatistics, error) {
	byState, err := s.GetWorkflowsByState(tenantID)
	if err != nil {
		return nil, err
	}

	stats := &WorkflowStatistics{}
	for _, row := range byState {
		stats.Total += row.Count
		switch row.State {
		case workflow.StateEnCours:
			stats.InProgress = row.Count
		case workflow.StateApprouve:
			stats.Approved = row.Count
		case workflow.StateRejete:
			stats.Rejected = row.Count
		case workflow.StateAnnule:
			stats.Cancelled = row.Count
		}
	}

	if decided := stats.Approved + stats.Rejected; decided > 0 {
		stats.ApprovalRate = float64(stats.Approved) / float64(decided)
	}

	// average wall-clock time from initiation to terminal state
	var completed []model.WorkflowModel
	err = s.db.Where("tenant_id = ? AND completed_at IS NOT NULL", tenantID).
		Find(&completed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load completed workflows: %w", err)
	}
	if len(completed) > 0 {
		var sum float64
		for _, wf := range completed {
			sum += wf.CompletedAt.Sub(wf.CreatedAt).Seconds()
		}
		stats.AverageCompletionSeconds = sum / float64(len(completed))
	}

	cutoff := time.Now().Add(-s.lateAfter)
	err = s.db.Model(&model.StepModel{}).
		Joins("JOIN workflows ON workflows.id = workflow_steps.workflow_id").
		Where("workflow_steps.tenant_id = ?", tenantID).
		Where("workflow_steps.status = ?", workflow.StepEnAttente).
		Where("workflows.state = ?", workflow.StateEnCours).
		Where("workflow_steps.step_order = workflows.current_step").
		Where("workflow_steps.created_at < ?", cutoff).
		Count(&stats.LateSteps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count late steps: %w", err)
	}

	return stats, nil
}
