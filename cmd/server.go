/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qualisoftsn/workflow-api/internal/api"
	"github.com/qualisoftsn/workflow-api/internal/config"
	"github.com/qualisoftsn/workflow-api/internal/container"
	"github.com/qualisoftsn/workflow-api/internal/metrics"
	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/service"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the workflow API server.
The server listens on the configured host and port and serves the REST
interfaces for approval workflow management, the task inbox and the
real-time notification channels.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		logger := ctr.Logger()

		// pick up log level changes without a restart
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath)
			watcher.OnChange(func(newCfg *config.Config) {
				if level, err := logrus.ParseLevel(newCfg.Log.Level); err == nil {
					logger.SetLevel(level)
				}
				logger.WithField("level", newCfg.Log.Level).Info("configuration reloaded")
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("failed to watch config file")
			} else {
				defer watcher.Stop()
			}
		}

		if cfg.Tracing.Enabled {
			if err := api.InitTracing(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint); err != nil {
				return fmt.Errorf("failed to initialize tracing: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = api.ShutdownTracing(ctx)
			}()
		}

		// repositories and services
		db := ctr.DB()
		auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
		workflowSvc := service.NewWorkflowService(
			ctr.Engine(),
			repository.NewWorkflowRepository(db),
			repository.NewStateHistoryRepository(db),
			auditLogSvc,
		)
		lateAfter := ctr.Engine().LateAfter()
		taskSvc := service.NewTaskService(repository.NewStepRepository(db), lateAfter)
		statisticsSvc := service.NewStatisticsService(db, lateAfter)

		// real-time notification plumbing
		hub := ctr.Hub()
		go hub.Run()

		dispatcher := service.NewEventDispatcher(
			repository.NewEventRepository(db),
			hub,
			logger,
			cfg.Events.Workers,
			cfg.Events.MaxRetries,
			time.Duration(cfg.Events.PollInterval)*time.Second,
		)
		dispatcher.Start()
		defer dispatcher.Stop()

		collector := metrics.NewCollector(db, 30*time.Second, lateAfter)
		collector.Start()
		defer collector.Stop()

		if cfg.Backup.Enabled {
			scheduler := service.NewBackupScheduler(
				ctr.BackupService(),
				logger,
				time.Duration(cfg.Backup.IntervalHours)*time.Hour,
				cfg.Backup.RetentionDays,
			)
			scheduler.Start(cmd.Context())
			defer scheduler.Stop()
		}

		controllers := &api.Controllers{
			Workflow:   api.NewWorkflowController(workflowSvc),
			Task:       api.NewTaskController(taskSvc),
			User:       api.NewUserController(repository.NewUserRepository(db)),
			Statistics: api.NewStatisticsController(statisticsSvc),
			Backup:     api.NewBackupController(ctr.BackupService()),
		}

		router := api.SetupRoutes(cfg, db, hub, ctr.TokenValidator(), taskSvc, controllers)

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("failed to start server")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Fatal("server forced to shutdown")
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.workflow-api)")
}
