package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// BackupScheduler runs periodic backups and retention cleanup.
type BackupScheduler struct {
	backupService *BackupService
	logger        *logrus.Logger
	interval      time.Duration
	retentionDays int
	stopChan      chan struct{}
}

// NewBackupScheduler creates a backup scheduler.
func NewBackupScheduler(backupService *BackupService, logger *logrus.Logger, interval time.Duration, retentionDays int) *BackupScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &BackupScheduler{
		backupService: backupService,
		logger:        logger,
		interval:      interval,
		retentionDays: retentionDays,
		stopChan:      make(chan struct{}),
	}
}

// Start launches the scheduler loop.
func (s *BackupScheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop stops the scheduler.
func (s *BackupScheduler) Stop() {
	close(s.stopChan)
}

func (s *BackupScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performBackup(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *BackupScheduler) performBackup(ctx context.Context) {
	path, err := s.backupService.CreateBackup(ctx)
	if err != nil {
		s.logger.WithError(err).Error("scheduled backup failed")
		return
	}
	s.logger.WithField("path", path).Info("backup created")

	removed, err := s.backupService.CleanupOldBackups(s.retentionDays)
	if err != nil {
		s.logger.WithError(err).Warn("backup cleanup failed")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("old backups pruned")
	}
}
