package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/service"
)

// TaskController serves the approver's task inbox.
type TaskController struct {
	taskService service.TaskService
}

// NewTaskController creates a task controller.
func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{
		taskService: taskService,
	}
}

// List godoc
// @Summary      Pending approval tasks
// @Description  Lists the steps awaiting the caller's decision. Only the active step of each in-progress workflow appears; later steps stay hidden until their turn.
// @Tags         tasks
// @Produce      json
// @Param        entity_type query string false "business entity type"
// @Param        page        query int    false "page number"
// @Param        page_size   query int    false "page size"
// @Success      200  {object}  PaginatedResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /workflows/tasks [get]
// @Security     BearerAuth
func (c *TaskController) List(ctx *gin.Context) {
	filter := &repository.TaskFilter{
		Page:     parseIntQuery(ctx, "page", 1),
		PageSize: parseIntQuery(ctx, "page_size", 20),
	}
	if v := ctx.Query("entity_type"); v != "" {
		filter.EntityType = &v
	}

	tasks, total, err := c.taskService.ListPending(ctx, filter)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list tasks", err.Error())
		return
	}

	Paginated(ctx, tasks, NewPaginationInfo(filter.Page, filter.PageSize, total))
}
