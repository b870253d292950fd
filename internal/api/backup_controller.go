package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qualisoftsn/workflow-api/internal/service"
)

// BackupController serves the admin backup endpoints.
type BackupController struct {
	backupService *service.BackupService
}

// NewBackupController creates a backup controller.
func NewBackupController(backupService *service.BackupService) *BackupController {
	return &BackupController{backupService: backupService}
}

// Create godoc
// @Summary      Trigger a backup
// @Description  Exports all workflow tables to a compressed dump
// @Tags         admin
// @Produce      json
// @Success      201  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/backups [post]
// @Security     BearerAuth
func (c *BackupController) Create(ctx *gin.Context) {
	path, err := c.backupService.CreateBackup(ctx)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "backup failed", err.Error())
		return
	}

	Created(ctx, gin.H{"path": path})
}

// List godoc
// @Summary      List backups
// @Tags         admin
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/backups [get]
// @Security     BearerAuth
func (c *BackupController) List(ctx *gin.Context) {
	backups, err := c.backupService.ListBackups()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list backups", err.Error())
		return
	}

	Success(ctx, backups)
}
