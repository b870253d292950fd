package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualisoftsn/workflow-api/internal/service"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

func TestWorkflowStatistics(t *testing.T) {
	db := openTestDB(t)
	engine := workflow.NewEngine(db, 48*time.Hour)
	statsSvc := service.NewStatisticsService(db, 48*time.Hour)
	ctx := context.Background()

	// one stays in progress
	_ = initiateTwoSteps(t, engine, "t1")

	// one gets fully approved
	approved := initiateTwoSteps(t, engine, "t1")
	_, err := engine.Decide(ctx, "t1", "u1", approved.Steps[0].ID, workflow.DecisionApprouve, "", 1)
	require.NoError(t, err)
	_, err = engine.Decide(ctx, "t1", "u2", approved.Steps[1].ID, workflow.DecisionApprouve, "", 1)
	require.NoError(t, err)

	// one gets rejected
	rejected := initiateTwoSteps(t, engine, "t1")
	_, err = engine.Decide(ctx, "t1", "u1", rejected.Steps[0].ID, workflow.DecisionRejete, "non", 1)
	require.NoError(t, err)

	// another tenant's workflow must not count
	_ = initiateTwoSteps(t, engine, "t2")

	stats, err := statsSvc.GetWorkflowStatistics("t1")
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.InProgress)
	assert.EqualValues(t, 1, stats.Approved)
	assert.EqualValues(t, 1, stats.Rejected)
	assert.EqualValues(t, 0, stats.Cancelled)
	assert.InDelta(t, 0.5, stats.ApprovalRate, 0.0001)
	assert.Zero(t, stats.LateSteps)
}

func TestWorkflowsByState(t *testing.T) {
	db := openTestDB(t)
	engine := workflow.NewEngine(db, 48*time.Hour)
	statsSvc := service.NewStatisticsService(db, 48*time.Hour)
	ctx := context.Background()

	inst := initiateTwoSteps(t, engine, "t1")
	_, err := engine.Cancel(ctx, "t1", "creator", inst.Workflow.ID, "")
	require.NoError(t, err)
	_ = initiateTwoSteps(t, engine, "t1")

	byState, err := statsSvc.GetWorkflowsByState("t1")
	require.NoError(t, err)

	counts := make(map[string]int64)
	for _, row := range byState {
		counts[row.State] = row.Count
	}
	assert.EqualValues(t, 1, counts[workflow.StateAnnule])
	assert.EqualValues(t, 1, counts[workflow.StateEnCours])
}
