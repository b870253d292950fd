package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/qualisoftsn/workflow-api/internal/auth"
	"github.com/qualisoftsn/workflow-api/internal/config"
	"github.com/qualisoftsn/workflow-api/internal/service"
	"github.com/qualisoftsn/workflow-api/internal/websocket"
)

// Controllers bundles the HTTP controllers wired by SetupRoutes.
type Controllers struct {
	Workflow   *WorkflowController
	Task       *TaskController
	User       *UserController
	Statistics *StatisticsController
	Backup     *BackupController
}

// SetupRoutes builds the router with the full middleware chain and the
// API surface.
func SetupRoutes(cfg *config.Config, db *gorm.DB, hub *websocket.Hub, validator *auth.TokenValidator, taskSvc service.TaskService, controllers *Controllers) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(RequestIDMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(RequestLogMiddleware())
	router.Use(ErrorHandlerMiddleware())
	if cfg.RateLimit.RPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware(cfg.Tracing.ServiceName))
	}

	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	router.GET("/metrics", MetricsHandler)

	if hub != nil && validator != nil {
		router.GET("/ws/tasks", websocket.Handler(hub, validator))
	}
	if validator != nil && taskSvc != nil {
		router.GET("/sse/tasks", SSEHandler(validator, taskSvc))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(validator))
	{
		v1.GET("/users", controllers.User.List)

		workflows := v1.Group("/workflows")
		{
			workflows.POST("/initiate", auth.RequireRole(auth.RoleQualite, auth.RoleAdmin), controllers.Workflow.Initiate)
			workflows.GET("", controllers.Workflow.List)
			workflows.GET("/tasks", controllers.Task.List)
			workflows.GET("/statistics", controllers.Statistics.GetStatistics)
			workflows.GET("/statistics/by-state", controllers.Statistics.GetByState)
			workflows.POST("/steps/:id/decision", controllers.Workflow.Decide)
			workflows.GET("/:id", controllers.Workflow.Get)
			workflows.GET("/:id/timeline", controllers.Workflow.Timeline)
			workflows.GET("/:id/history", controllers.Workflow.History)
			workflows.POST("/:id/cancel", controllers.Workflow.Cancel)
		}

		admin := v1.Group("/admin")
		admin.Use(auth.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/backups", controllers.Backup.Create)
			admin.GET("/backups", controllers.Backup.List)
		}
	}

	return router
}
