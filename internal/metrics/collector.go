package metrics

import (
	"context"
	"time"

	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
	"gorm.io/gorm"
)

// Collector periodically samples database pool usage, workflow state
// distribution and late-step counts into the Prometheus gauges.
type Collector struct {
	db        *gorm.DB
	interval  time.Duration
	lateAfter time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCollector creates a collector.
func NewCollector(db *gorm.DB, interval, lateAfter time.Duration) *Collector {
	if lateAfter <= 0 {
		lateAfter = workflow.DefaultLateAfter
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:        db,
		interval:  interval,
		lateAfter: lateAfter,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start begins collecting in the background.
func (c *Collector) Start() {
	go c.collect()
}

// Stop stops the collector and waits for the loop to exit.
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

// sample refreshes all gauges once. Errors are swallowed: a missed
// sample shows up as a stale gauge, not a failed request.
func (c *Collector) sample() {
	if sqlDB, err := c.db.DB(); err == nil {
		stats := sqlDB.Stats()
		SetDatabaseConnections(float64(stats.InUse), float64(stats.Idle), float64(stats.MaxOpenConnections))
	}

	var byState []struct {
		State string
		Count int64
	}
	if err := c.db.Model(&model.WorkflowModel{}).
		Select("state, COUNT(*) as count").
		Group("state").
		Scan(&byState).Error; err == nil {
		for _, row := range byState {
			SetWorkflowsByState(row.State, float64(row.Count))
		}
	}

	cutoff := time.Now().Add(-c.lateAfter)
	var late int64
	if err := c.db.Model(&model.StepModel{}).
		Joins("JOIN workflows ON workflows.id = workflow_steps.workflow_id").
		Where("workflow_steps.status = ?", workflow.StepEnAttente).
		Where("workflows.state = ?", workflow.StateEnCours).
		Where("workflow_steps.step_order = workflows.current_step").
		Where("workflow_steps.created_at < ?", cutoff).
		Count(&late).Error; err == nil {
		SetLateSteps(float64(late))
	}
}
