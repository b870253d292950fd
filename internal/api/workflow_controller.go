package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/service"
	"github.com/qualisoftsn/workflow-api/internal/utils"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

// WorkflowController serves the approval workflow endpoints.
type WorkflowController struct {
	workflowService service.WorkflowService
}

// NewWorkflowController creates a workflow controller.
func NewWorkflowController(workflowService service.WorkflowService) *WorkflowController {
	return &WorkflowController{
		workflowService: workflowService,
	}
}

// handleWorkflowError maps an engine error onto the HTTP status it
// deserves. Concurrency and ordering violations answer 409 so clients
// know to refetch and retry.
func handleWorkflowError(ctx *gin.Context, err error) {
	var draftErr *workflow.DraftError
	switch {
	case errors.As(err, &draftErr):
		Error(ctx, http.StatusBadRequest, "invalid step list", draftErr.Error())
	case errors.Is(err, workflow.ErrInvalidDecision):
		Error(ctx, http.StatusBadRequest, "invalid decision", err.Error())
	case errors.Is(err, workflow.ErrWorkflowNotFound), errors.Is(err, workflow.ErrStepNotFound):
		Error(ctx, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, workflow.ErrStepNotActive),
		errors.Is(err, workflow.ErrWorkflowClosed),
		errors.Is(err, workflow.ErrVersionConflict):
		Error(ctx, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, workflow.ErrNotApprover), errors.Is(err, workflow.ErrNotCreator):
		Error(ctx, http.StatusForbidden, "forbidden", err.Error())
	default:
		Error(ctx, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// Initiate godoc
// @Summary      Start an approval workflow
// @Description  Creates a workflow from an ordered step list and activates its first step. Replaying the same idempotency key returns the original workflow.
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        request body service.InitiateWorkflowRequest true "workflow definition"
// @Success      200  {object}  Response
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /workflows/initiate [post]
// @Security     BearerAuth
func (c *WorkflowController) Initiate(ctx *gin.Context) {
	var req service.InitiateWorkflowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	inst, created, err := c.workflowService.Initiate(ctx, &req)
	if err != nil {
		handleWorkflowError(ctx, err)
		return
	}

	if created {
		Created(ctx, inst)
		return
	}
	Success(ctx, inst)
}

// List godoc
// @Summary      List workflows
// @Description  Lists the tenant's workflows, newest first
// @Tags         workflows
// @Produce      json
// @Param        state        query string false "workflow state"  Enums(EN_COURS, APPROUVE, REJETE, ANNULE)
// @Param        entity_type  query string false "business entity type"
// @Param        entity_id    query string false "business entity id"
// @Param        created_by   query string false "initiator user id"
// @Param        page         query int    false "page number"
// @Param        page_size    query int    false "page size"
// @Success      200  {object}  PaginatedResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /workflows [get]
// @Security     BearerAuth
func (c *WorkflowController) List(ctx *gin.Context) {
	filter := &repository.WorkflowFilter{
		Page:     parseIntQuery(ctx, "page", 1),
		PageSize: parseIntQuery(ctx, "page_size", 20),
	}
	if v := ctx.Query("state"); v != "" {
		filter.State = &v
	}
	if v := ctx.Query("entity_type"); v != "" {
		filter.EntityType = &v
	}
	if v := ctx.Query("entity_id"); v != "" {
		filter.EntityID = &v
	}
	if v := ctx.Query("created_by"); v != "" {
		filter.CreatedBy = &v
	}

	workflows, total, err := c.workflowService.List(ctx, filter)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list workflows", err.Error())
		return
	}

	Paginated(ctx, workflows, NewPaginationInfo(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary      Get a workflow
// @Description  Returns a workflow and its steps
// @Tags         workflows
// @Produce      json
// @Param        id path string true "workflow id"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /workflows/{id} [get]
// @Security     BearerAuth
func (c *WorkflowController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateWorkflowID(ctx, id) {
		return
	}

	inst, err := c.workflowService.Get(ctx, id)
	if err != nil {
		handleWorkflowError(ctx, err)
		return
	}

	Success(ctx, inst)
}

// Timeline godoc
// @Summary      Workflow timeline
// @Description  Returns the visual timeline of a workflow's steps
// @Tags         workflows
// @Produce      json
// @Param        id path string true "workflow id"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /workflows/{id}/timeline [get]
// @Security     BearerAuth
func (c *WorkflowController) Timeline(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateWorkflowID(ctx, id) {
		return
	}

	timeline, err := c.workflowService.Timeline(ctx, id)
	if err != nil {
		handleWorkflowError(ctx, err)
		return
	}

	Success(ctx, timeline)
}

// History godoc
// @Summary      Workflow state history
// @Description  Returns the state transitions of a workflow, oldest first
// @Tags         workflows
// @Produce      json
// @Param        id path string true "workflow id"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /workflows/{id}/history [get]
// @Security     BearerAuth
func (c *WorkflowController) History(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateWorkflowID(ctx, id) {
		return
	}

	history, err := c.workflowService.History(ctx, id)
	if err != nil {
		handleWorkflowError(ctx, err)
		return
	}

	Success(ctx, history)
}

// Cancel godoc
// @Summary      Cancel a workflow
// @Description  Cancels an in-progress workflow. Only the initiator may cancel.
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        id      path string                 true  "workflow id"
// @Param        request body service.CancelRequest  false "cancellation reason"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /workflows/{id}/cancel [post]
// @Security     BearerAuth
func (c *WorkflowController) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateWorkflowID(ctx, id) {
		return
	}

	var req service.CancelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	inst, err := c.workflowService.Cancel(ctx, id, req.Reason)
	if err != nil {
		handleWorkflowError(ctx, err)
		return
	}

	Success(ctx, inst)
}

// Decide godoc
// @Summary      Decide a step
// @Description  Approves or rejects the workflow's active step. The version field must match the step's current version; a mismatch answers 409.
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "step id"
// @Param        request body service.DecisionRequest true "decision"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /workflows/steps/{id}/decision [post]
// @Security     BearerAuth
func (c *WorkflowController) Decide(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateStepID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid step ID", err.Error())
		return
	}

	var req service.DecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	inst, err := c.workflowService.Decide(ctx, id, &req)
	if err != nil {
		handleWorkflowError(ctx, err)
		return
	}

	Success(ctx, inst)
}

func (c *WorkflowController) validateWorkflowID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateWorkflowID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid workflow ID", err.Error())
		return false
	}
	return true
}

func parseIntQuery(ctx *gin.Context, name string, fallback int) int {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
