package service

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qualisoftsn/workflow-api/internal/model"
)

// BackupService exports the workflow tables as compressed JSON dumps
// and prunes dumps past the retention window.
type BackupService struct {
	db        *gorm.DB
	backupDir string
}

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBackupService creates a backup service. Falls back to the temp
// directory when the configured one cannot be created.
func NewBackupService(db *gorm.DB, backupDir string) *BackupService {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		backupDir = os.TempDir()
	}
	return &BackupService{db: db, backupDir: backupDir}
}

// tableDump pairs a table name with its rows for the export file.
type tableDump struct {
	Table string      `json:"table"`
	Rows  interface{} `json:"rows"`
}

// CreateBackup dumps every table to a single gzip-compressed JSON
// file and returns its path.
func (s *BackupService) CreateBackup(ctx context.Context) (string, error) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("workflow_backup_%s.json.gz", timestamp)
	backupPath := filepath.Join(s.backupDir, filename)

	dumps := make([]tableDump, 0, 6)
	collect := func(table string, dest interface{}) error {
		if err := s.db.WithContext(ctx).Table(table).Find(dest).Error; err != nil {
			return fmt.Errorf("failed to export table %s: %w", table, err)
		}
		dumps = append(dumps, tableDump{Table: table, Rows: dest})
		return nil
	}

	var (
		users     []model.UserModel
		workflows []model.WorkflowModel
		steps     []model.StepModel
		history   []model.StateHistoryModel
		events    []model.EventModel
		auditLogs []model.AuditLogModel
	)
	if err := collect("users", &users); err != nil {
		return "", err
	}
	if err := collect("workflows", &workflows); err != nil {
		return "", err
	}
	if err := collect("workflow_steps", &steps); err != nil {
		return "", err
	}
	if err := collect("state_history", &history); err != nil {
		return "", err
	}
	if err := collect("events", &events); err != nil {
		return "", err
	}
	if err := collect("audit_logs", &auditLogs); err != nil {
		return "", err
	}

	file, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	enc := json.NewEncoder(gz)
	if err := enc.Encode(dumps); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return backupPath, nil
}

// ListBackups returns the backups on disk, newest first.
func (s *BackupService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "workflow_backup_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:  entry.Name(),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// CleanupOldBackups removes backups older than retentionDays.
func (s *BackupService) CleanupOldBackups(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	backups, err := s.ListBackups()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, backup := range backups {
		if backup.CreatedAt.Before(cutoff) {
			if err := os.Remove(backup.Path); err != nil {
				return removed, fmt.Errorf("failed to remove backup %s: %w", backup.Filename, err)
			}
			removed++
		}
	}
	return removed, nil
}
