package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qualisoftsn/workflow-api/internal/repository"
)

// UserController serves the approver directory.
type UserController struct {
	userRepo repository.UserRepository
}

// NewUserController creates a user controller.
func NewUserController(userRepo repository.UserRepository) *UserController {
	return &UserController{userRepo: userRepo}
}

// List godoc
// @Summary      List users
// @Description  Lists the tenant's users, optionally filtered by role. Used to pick approvers when composing a workflow.
// @Tags         users
// @Produce      json
// @Param        role query string false "role filter" Enums(admin, qualite, employe)
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /users [get]
// @Security     BearerAuth
func (c *UserController) List(ctx *gin.Context) {
	tenantID := ctx.GetString("tenant_id")

	var role *string
	if v := ctx.Query("role"); v != "" {
		role = &v
	}

	users, err := c.userRepo.FindByTenant(tenantID, role)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list users", err.Error())
		return
	}

	Success(ctx, users)
}
