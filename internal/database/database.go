package database

import (
	"context"
	"fmt"
	"time"

	"github.com/qualisoftsn/workflow-api/internal/config"
	"github.com/qualisoftsn/workflow-api/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig is the connection pool tuning.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
}

// BuildDSN builds the PostgreSQL DSN.
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// DefaultPoolConfig returns the development pool configuration.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600,
		ConnMaxIdleTime: 600,
	}
}

// ProductionPoolConfig returns the production pool configuration.
func ProductionPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    20,
		MaxOpenConns:    200,
		ConnMaxLifetime: 3600,
		ConnMaxIdleTime: 300,
	}
}

// Connect opens a PostgreSQL connection and applies pool settings from
// the configuration, falling back to defaults for unset values.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	pool := DefaultPoolConfig()
	if cfg.MaxIdleConns > 0 {
		pool.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		pool.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		pool.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry retries Connect with exponential backoff.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	// SQLite lacks jsonb, create its tables by hand
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		if err := db.AutoMigrate(
			&model.UserModel{},
			&model.WorkflowModel{},
			&model.StepModel{},
			&model.StateHistoryModel{},
			&model.EventModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables creates the schema for SQLite (TEXT instead of jsonb).
func createSQLiteTables(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS workflows (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			entity_id VARCHAR(64) NOT NULL,
			entity_type VARCHAR(32) NOT NULL,
			state VARCHAR(32) NOT NULL,
			current_step INTEGER NOT NULL DEFAULT 1,
			version INTEGER NOT NULL DEFAULT 1,
			idempotency_key VARCHAR(128) NOT NULL,
			created_by VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			completed_at DATETIME
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create workflows table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_steps (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			workflow_id VARCHAR(64) NOT NULL,
			step_order INTEGER NOT NULL,
			approver_id VARCHAR(64) NOT NULL,
			label VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			comment TEXT,
			version INTEGER NOT NULL DEFAULT 1,
			decided_by VARCHAR(64),
			decided_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create workflow_steps table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS state_history (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			workflow_id VARCHAR(64) NOT NULL,
			from_state VARCHAR(32),
			to_state VARCHAR(32) NOT NULL,
			reason TEXT,
			operator VARCHAR(64) NOT NULL,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create state_history table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			workflow_id VARCHAR(64) NOT NULL,
			type VARCHAR(32) NOT NULL,
			recipient_id VARCHAR(64),
			data TEXT NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			retry_count INTEGER DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	return nil
}

// CreateIndexes creates the query-path indexes.
func CreateIndexes(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_workflows_tenant_idem ON workflows(tenant_id, idempotency_key)").Error; err != nil {
		return fmt.Errorf("failed to create idx_workflows_tenant_idem: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_workflows_tenant_state ON workflows(tenant_id, state)").Error; err != nil {
		return fmt.Errorf("failed to create idx_workflows_tenant_state: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_workflows_entity ON workflows(entity_type, entity_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_workflows_entity: %w", err)
	}

	// inbox query: pending steps for one approver
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_steps_approver_status ON workflow_steps(approver_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_steps_approver_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_steps_workflow_order ON workflow_steps(workflow_id, step_order)").Error; err != nil {
		return fmt.Errorf("failed to create idx_steps_workflow_order: %w", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_workflow_id ON state_history(workflow_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_workflow_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_created_at ON state_history(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_created_at: %w", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_status ON events(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_workflow_id ON events(workflow_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_workflow_id: %w", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_user_id: %w", err)
	}

	if dialector == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_data_gin ON events USING GIN (data)").Error; err != nil {
			return fmt.Errorf("failed to create idx_events_data_gin: %w", err)
		}
	}

	return nil
}

// CheckHealth reports whether the database answers a ping.
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}

// Reconnect closes the old connection and opens a new one.
func Reconnect(cfg config.DatabaseConfig, oldDB *gorm.DB) (*gorm.DB, error) {
	if oldDB != nil {
		if sqlDB, err := oldDB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return Connect(cfg)
}
