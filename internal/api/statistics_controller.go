package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qualisoftsn/workflow-api/internal/service"
)

// StatisticsController serves the workflow dashboards.
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController creates a statistics controller.
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{
		statisticsService: statisticsService,
	}
}

// GetStatistics godoc
// @Summary      Workflow statistics
// @Description  Returns counts, approval rate, average completion time and late step count for the tenant
// @Tags         statistics
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /workflows/statistics [get]
// @Security     BearerAuth
func (c *StatisticsController) GetStatistics(ctx *gin.Context) {
	tenantID := ctx.GetString("tenant_id")

	stats, err := c.statisticsService.GetWorkflowStatistics(tenantID)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to compute statistics", err.Error())
		return
	}

	Success(ctx, stats)
}

// GetByState godoc
// @Summary      Workflow counts by state
// @Tags         statistics
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /workflows/statistics/by-state [get]
// @Security     BearerAuth
func (c *StatisticsController) GetByState(ctx *gin.Context) {
	tenantID := ctx.GetString("tenant_id")

	counts, err := c.statisticsService.GetWorkflowsByState(tenantID)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to compute statistics", err.Error())
		return
	}

	Success(ctx, counts)
}
