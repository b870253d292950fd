package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qualisoftsn/workflow-api/internal/database"
	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/service"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func identityContext(tenantID, userID string) context.Context {
	ctx := context.WithValue(context.Background(), "tenant_id", tenantID) //nolint:staticcheck
	return context.WithValue(ctx, "user_id", userID)                     //nolint:staticcheck
}

func initiateTwoSteps(t *testing.T, engine *workflow.Engine, tenantID string) *workflow.Instance {
	t.Helper()
	inst, _, err := engine.Initiate(context.Background(), tenantID, "creator", &workflow.InitiateRequest{
		EntityID:   "doc-001",
		EntityType: "DOCUMENT",
		Steps: []workflow.DraftStep{
			{Order: 1, ApproverID: "u1", Label: "Relecture"},
			{Order: 2, ApproverID: "u2", Label: "Validation qualité"},
		},
	})
	require.NoError(t, err)
	return inst
}

func TestListPendingShowsOnlyActiveStep(t *testing.T) {
	db := openTestDB(t)
	engine := workflow.NewEngine(db, 48*time.Hour)
	taskSvc := service.NewTaskService(repository.NewStepRepository(db), 48*time.Hour)

	inst := initiateTwoSteps(t, engine, "t1")

	// u1 holds the active step
	tasks, total, err := taskSvc.ListPending(identityContext("t1", "u1"), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, inst.Steps[0].ID, tasks[0].StepID)
	assert.Equal(t, "doc-001", tasks[0].EntityID)
	assert.Equal(t, "DOCUMENT", tasks[0].EntityType)
	assert.Equal(t, 1, tasks[0].Version)

	// u2's step exists but is not yet active, so the inbox stays empty
	tasks, total, err = taskSvc.ListPending(identityContext("t1", "u2"), nil)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, tasks)
}

func TestListPendingAfterApproval(t *testing.T) {
	db := openTestDB(t)
	engine := workflow.NewEngine(db, 48*time.Hour)
	taskSvc := service.NewTaskService(repository.NewStepRepository(db), 48*time.Hour)

	inst := initiateTwoSteps(t, engine, "t1")

	_, err := engine.Decide(context.Background(), "t1", "u1", inst.Steps[0].ID, workflow.DecisionApprouve, "", 1)
	require.NoError(t, err)

	// the approved step leaves u1's inbox and step 2 enters u2's
	_, total, err := taskSvc.ListPending(identityContext("t1", "u1"), nil)
	require.NoError(t, err)
	assert.Zero(t, total)

	tasks, total, err := taskSvc.ListPending(identityContext("t1", "u2"), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, inst.Steps[1].ID, tasks[0].StepID)
}

func TestListPendingExcludesClosedWorkflows(t *testing.T) {
	db := openTestDB(t)
	engine := workflow.NewEngine(db, 48*time.Hour)
	taskSvc := service.NewTaskService(repository.NewStepRepository(db), 48*time.Hour)

	inst := initiateTwoSteps(t, engine, "t1")

	_, err := engine.Cancel(context.Background(), "t1", "creator", inst.Workflow.ID, "")
	require.NoError(t, err)

	_, total, err := taskSvc.ListPending(identityContext("t1", "u1"), nil)
	require.NoError(t, err)
	assert.Zero(t, total, "cancelled workflows must not surface tasks")
}

func TestListPendingTenantScoped(t *testing.T) {
	db := openTestDB(t)
	engine := workflow.NewEngine(db, 48*time.Hour)
	taskSvc := service.NewTaskService(repository.NewStepRepository(db), 48*time.Hour)

	initiateTwoSteps(t, engine, "t1")

	_, total, err := taskSvc.ListPending(identityContext("t2", "u1"), nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListPendingEntityTypeFilter(t *testing.T) {
	db := openTestDB(t)
	engine := workflow.NewEngine(db, 48*time.Hour)
	taskSvc := service.NewTaskService(repository.NewStepRepository(db), 48*time.Hour)

	initiateTwoSteps(t, engine, "t1")

	audit := "AUDIT"
	_, total, err := taskSvc.ListPending(identityContext("t1", "u1"), &repository.TaskFilter{EntityType: &audit})
	require.NoError(t, err)
	assert.Zero(t, total)

	document := "DOCUMENT"
	_, total, err = taskSvc.ListPending(identityContext("t1", "u1"), &repository.TaskFilter{EntityType: &document})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
