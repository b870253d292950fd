/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualisoftsn/workflow-api/internal/auth"
	"github.com/qualisoftsn/workflow-api/internal/config"
	"github.com/qualisoftsn/workflow-api/internal/database"
	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo tenant",
	Long: `Seed the database with a demo tenant and its users: one admin,
two quality managers and two employees. Prints a bearer token for each
user so the API can be exercised right away.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		tenantID, _ := cmd.Flags().GetString("tenant")
		users := []*model.UserModel{
			{ID: "usr-admin", TenantID: tenantID, Name: "Aminata Diop", Email: "aminata.diop@example.sn", Role: auth.RoleAdmin},
			{ID: "usr-qualite-1", TenantID: tenantID, Name: "Moussa Ndiaye", Email: "moussa.ndiaye@example.sn", Role: auth.RoleQualite},
			{ID: "usr-qualite-2", TenantID: tenantID, Name: "Fatou Sarr", Email: "fatou.sarr@example.sn", Role: auth.RoleQualite},
			{ID: "usr-employe-1", TenantID: tenantID, Name: "Ibrahima Fall", Email: "ibrahima.fall@example.sn", Role: auth.RoleEmploye},
			{ID: "usr-employe-2", TenantID: tenantID, Name: "Awa Gueye", Email: "awa.gueye@example.sn", Role: auth.RoleEmploye},
		}

		userRepo := repository.NewUserRepository(db)
		validator := auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

		for _, user := range users {
			if err := userRepo.Save(user); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", user.ID, err)
			}

			token, err := validator.IssueToken(user.ID, user.TenantID, user.Role, user.Name, 24*time.Hour)
			if err != nil {
				return fmt.Errorf("failed to issue token for %s: %w", user.ID, err)
			}
			log.Printf("%-14s %-8s %s", user.ID, user.Role, token)
		}

		// a ready-made document approval so the inbox and timeline have
		// something to show
		engine := workflow.NewEngine(db, time.Duration(cfg.Workflow.LateAfterHours)*time.Hour)
		inst, created, err := engine.Initiate(cmd.Context(), tenantID, "usr-qualite-1", &workflow.InitiateRequest{
			EntityID:       "doc-manuel-qualite",
			EntityType:     "DOCUMENT",
			IdempotencyKey: "seed-demo-workflow",
			Steps: []workflow.DraftStep{
				{Order: 1, ApproverID: "usr-qualite-2", Label: "Relecture qualité"},
				{Order: 2, ApproverID: "usr-admin", Label: "Validation finale"},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to seed demo workflow: %w", err)
		}
		if created {
			log.Printf("Seeded demo workflow %s", inst.Workflow.ID)
		}

		log.Printf("Seeded %d users for tenant %s", len(users), tenantID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("config", "", "Config file path")
	seedCmd.Flags().String("tenant", "tenant-demo", "Tenant to seed")
}
