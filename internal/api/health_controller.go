package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qualisoftsn/workflow-api/internal/database"
)

// HealthController serves the liveness endpoint.
type HealthController struct {
	db *gorm.DB
}

// NewHealthController creates a health controller.
func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// HealthStatus is the health check reply.
type HealthStatus struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
	Version  string `json:"version" example:"1.0.0"`
	Time     int64  `json:"time"`
}

// Check godoc
// @Summary Health check
// @Description Reports service and database health
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health [get]
func (h *HealthController) Check(c *gin.Context) {
	status := HealthStatus{
		Status:   "ok",
		Database: "ok",
		Version:  Version,
		Time:     time.Now().Unix(),
	}

	if !database.CheckHealth(h.db) {
		status.Status = "degraded"
		status.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}
