package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qualisoftsn/workflow-api/internal/api"
	"github.com/qualisoftsn/workflow-api/internal/auth"
	"github.com/qualisoftsn/workflow-api/internal/config"
	"github.com/qualisoftsn/workflow-api/internal/database"
	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/service"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

type testEnv struct {
	db        *gorm.DB
	router    *gin.Engine
	validator *auth.TokenValidator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"

	engine := workflow.NewEngine(db, 48*time.Hour)
	validator := auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	workflowSvc := service.NewWorkflowService(
		engine,
		repository.NewWorkflowRepository(db),
		repository.NewStateHistoryRepository(db),
		auditLogSvc,
	)
	taskSvc := service.NewTaskService(repository.NewStepRepository(db), 48*time.Hour)

	controllers := &api.Controllers{
		Workflow:   api.NewWorkflowController(workflowSvc),
		Task:       api.NewTaskController(taskSvc),
		User:       api.NewUserController(repository.NewUserRepository(db)),
		Statistics: api.NewStatisticsController(service.NewStatisticsService(db, 48*time.Hour)),
		Backup:     api.NewBackupController(service.NewBackupService(db, t.TempDir())),
	}

	router := api.SetupRoutes(cfg, db, nil, validator, taskSvc, controllers)
	return &testEnv{db: db, router: router, validator: validator}
}

func (e *testEnv) token(t *testing.T, userID, tenantID, role string) string {
	t.Helper()
	token, err := e.validator.IssueToken(userID, tenantID, role, userID, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type instancePayload struct {
	Workflow model.WorkflowModel `json:"workflow"`
	Steps    []model.StepModel   `json:"steps"`
}

func decodeInstance(t *testing.T, w *httptest.ResponseRecorder) instancePayload {
	t.Helper()
	var envelope struct {
		Code int             `json:"code"`
		Data instancePayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func initiateBody(key string) map[string]interface{} {
	return map[string]interface{}{
		"entity_id":       "doc-001",
		"entity_type":     "DOCUMENT",
		"idempotency_key": key,
		"steps": []map[string]interface{}{
			{"order": 1, "approver_id": "u1", "label": "Relecture"},
			{"order": 2, "approver_id": "u2", "label": "Validation qualité"},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/workflows", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/workflows", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInitiateRequiresQualiteRole(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "emp", "t1", auth.RoleEmploye)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", token, initiateBody("k1"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInitiateAndGet(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "qal", "t1", auth.RoleQualite)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", token, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	inst := decodeInstance(t, w)
	assert.Equal(t, "EN_COURS", inst.Workflow.State)
	assert.Equal(t, "qal", inst.Workflow.CreatedBy)
	require.Len(t, inst.Steps, 2)

	w = env.do(t, http.MethodGet, "/api/v1/workflows/"+inst.Workflow.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInitiateInvalidDraft(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "qal", "t1", auth.RoleQualite)

	body := initiateBody("k1")
	body["steps"] = []map[string]interface{}{
		{"order": 1, "approver_id": "", "label": "Relecture"},
	}

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// a rejected draft leaves no partial instance behind
	var count int64
	require.NoError(t, env.db.Model(&model.WorkflowModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInitiateIdempotencyReplay(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "qal", "t1", auth.RoleQualite)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", token, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code)
	first := decodeInstance(t, w)

	w = env.do(t, http.MethodPost, "/api/v1/workflows/initiate", token, initiateBody("k1"))
	require.Equal(t, http.StatusOK, w.Code, "replay answers 200, not 201")
	second := decodeInstance(t, w)
	assert.Equal(t, first.Workflow.ID, second.Workflow.ID)

	var count int64
	require.NoError(t, env.db.Model(&model.WorkflowModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDecisionFlow(t *testing.T) {
	env := newTestEnv(t)
	qualite := env.token(t, "qal", "t1", auth.RoleQualite)
	u1 := env.token(t, "u1", "t1", auth.RoleEmploye)
	u2 := env.token(t, "u2", "t1", auth.RoleEmploye)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", qualite, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code)
	inst := decodeInstance(t, w)

	decisionPath := func(stepID string) string {
		return fmt.Sprintf("/api/v1/workflows/steps/%s/decision", stepID)
	}
	approve := map[string]interface{}{"decision": "APPROUVE", "comment": "vu", "version": 1}

	// step 2 is not active yet
	w = env.do(t, http.MethodPost, decisionPath(inst.Steps[1].ID), u2, approve)
	assert.Equal(t, http.StatusConflict, w.Code)

	// only the assigned approver may decide
	w = env.do(t, http.MethodPost, decisionPath(inst.Steps[0].ID), u2, approve)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// a stale version answers 409
	stale := map[string]interface{}{"decision": "APPROUVE", "version": 9}
	w = env.do(t, http.MethodPost, decisionPath(inst.Steps[0].ID), u1, stale)
	assert.Equal(t, http.StatusConflict, w.Code)

	// the real approval advances the workflow
	w = env.do(t, http.MethodPost, decisionPath(inst.Steps[0].ID), u1, approve)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decodeInstance(t, w)
	assert.Equal(t, 2, out.Workflow.CurrentStep)

	// u2 finishes the workflow
	w = env.do(t, http.MethodPost, decisionPath(inst.Steps[1].ID), u2, approve)
	require.Equal(t, http.StatusOK, w.Code)
	out = decodeInstance(t, w)
	assert.Equal(t, "APPROUVE", out.Workflow.State)
}

func TestTaskInboxEndpoint(t *testing.T) {
	env := newTestEnv(t)
	qualite := env.token(t, "qal", "t1", auth.RoleQualite)
	u1 := env.token(t, "u1", "t1", auth.RoleEmploye)
	u2 := env.token(t, "u2", "t1", auth.RoleEmploye)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", qualite, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code)

	var inbox struct {
		Data []service.Task `json:"data"`
	}

	w = env.do(t, http.MethodGet, "/api/v1/workflows/tasks", u1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	assert.Len(t, inbox.Data, 1)

	w = env.do(t, http.MethodGet, "/api/v1/workflows/tasks", u2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	assert.Empty(t, inbox.Data)
}

func TestCrossTenantIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	t1 := env.token(t, "qal", "t1", auth.RoleQualite)
	t2 := env.token(t, "qal2", "t2", auth.RoleQualite)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", t1, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code)
	inst := decodeInstance(t, w)

	w = env.do(t, http.MethodGet, "/api/v1/workflows/"+inst.Workflow.ID, t2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	env := newTestEnv(t)
	qualite := env.token(t, "qal", "t1", auth.RoleQualite)
	other := env.token(t, "u1", "t1", auth.RoleEmploye)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", qualite, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code)
	inst := decodeInstance(t, w)

	cancelPath := "/api/v1/workflows/" + inst.Workflow.ID + "/cancel"

	w = env.do(t, http.MethodPost, cancelPath, other, map[string]interface{}{"reason": "non"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, cancelPath, qualite, map[string]interface{}{"reason": "obsolète"})
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeInstance(t, w)
	assert.Equal(t, "ANNULE", out.Workflow.State)

	// cancelling twice hits the closed-workflow guard
	w = env.do(t, http.MethodPost, cancelPath, qualite, map[string]interface{}{"reason": "encore"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTimelineAndHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	qualite := env.token(t, "qal", "t1", auth.RoleQualite)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", qualite, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code)
	inst := decodeInstance(t, w)

	w = env.do(t, http.MethodGet, "/api/v1/workflows/"+inst.Workflow.ID+"/timeline", qualite, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var timeline struct {
		Data []workflow.TimelineStep `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &timeline))
	require.Len(t, timeline.Data, 2)
	assert.Equal(t, workflow.VisualCurrent, timeline.Data[0].VisualState)
	assert.Equal(t, workflow.VisualUpcoming, timeline.Data[1].VisualState)

	w = env.do(t, http.MethodGet, "/api/v1/workflows/"+inst.Workflow.ID+"/history", qualite, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/workflows/wf-unknown/history", qualite, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserListEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "qal", "t1", auth.RoleQualite)

	users := []*model.UserModel{
		{ID: "u1", TenantID: "t1", Name: "Moussa Ndiaye", Email: "m@x.sn", Role: auth.RoleQualite},
		{ID: "u2", TenantID: "t1", Name: "Awa Gueye", Email: "a@x.sn", Role: auth.RoleEmploye},
		{ID: "u3", TenantID: "t2", Name: "Autre Tenant", Email: "o@x.sn", Role: auth.RoleQualite},
	}
	for _, u := range users {
		require.NoError(t, env.db.Create(u).Error)
	}

	var reply struct {
		Data []model.UserModel `json:"data"`
	}

	w := env.do(t, http.MethodGet, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Len(t, reply.Data, 2, "other tenants' users must stay hidden")

	w = env.do(t, http.MethodGet, "/api/v1/users?role=qualite", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	require.Len(t, reply.Data, 1)
	assert.Equal(t, "u1", reply.Data[0].ID)
}

func TestStatisticsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "qal", "t1", auth.RoleQualite)

	w := env.do(t, http.MethodPost, "/api/v1/workflows/initiate", token, initiateBody("k1"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/workflows/statistics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var reply struct {
		Data service.WorkflowStatistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.EqualValues(t, 1, reply.Data.Total)
	assert.EqualValues(t, 1, reply.Data.InProgress)
}

func TestBackupEndpointsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	qualite := env.token(t, "qal", "t1", auth.RoleQualite)
	admin := env.token(t, "adm", "t1", auth.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/v1/admin/backups", qualite, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/admin/backups", admin, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/backups", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
