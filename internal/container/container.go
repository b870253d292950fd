package container

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qualisoftsn/workflow-api/internal/api"
	"github.com/qualisoftsn/workflow-api/internal/auth"
	"github.com/qualisoftsn/workflow-api/internal/config"
	"github.com/qualisoftsn/workflow-api/internal/database"
	"github.com/qualisoftsn/workflow-api/internal/service"
	"github.com/qualisoftsn/workflow-api/internal/websocket"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

// Container wires the application dependencies: database, logger,
// workflow engine, token validator, WebSocket hub and backup service.
type Container struct {
	cfg           *config.Config
	db            *gorm.DB
	logger        *logrus.Logger
	engine        *workflow.Engine
	validator     *auth.TokenValidator
	hub           *websocket.Hub
	backupService *service.BackupService
}

// NewContainer initializes all dependencies from the configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	api.SetLogger(logger)

	// retry 3 times with exponential backoff
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	lateAfter := time.Duration(cfg.Workflow.LateAfterHours) * time.Hour
	engine := workflow.NewEngine(db, lateAfter)

	validator := auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	hub := websocket.NewHub()

	backupService := service.NewBackupService(db, cfg.Backup.Dir)

	return &Container{
		cfg:           cfg,
		db:            db,
		logger:        logger,
		engine:        engine,
		validator:     validator,
		hub:           hub,
		backupService: backupService,
	}, nil
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.cfg
}

// DB returns the database handle.
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger returns the application logger.
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Engine returns the workflow engine.
func (c *Container) Engine() *workflow.Engine {
	return c.engine
}

// TokenValidator returns the bearer token validator.
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.validator
}

// Hub returns the WebSocket hub.
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// BackupService returns the backup service.
func (c *Container) BackupService() *service.BackupService {
	return c.backupService
}

// Close releases the held resources.
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil && sqlDB != nil {
			return sqlDB.Close()
		}
	}
	return nil
}
