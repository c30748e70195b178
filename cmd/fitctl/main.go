// fitctl runs maintenance tasks against the configured database.
package main

import (
	"context"
	"fmt"
	"os"

	"fitcommunity/config"
	"fitcommunity/internal/app"
	"fitcommunity/internal/database"
	"fitcommunity/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "fitctl",
	Short:         "Maintenance commands for the fitness community backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := app.Open()
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrated")
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-counters",
	Short: "Recompute like, comment and subcomment counters from stored rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMaintenance(cmd.Context(), func(ctx context.Context, m *service.MaintenanceService) error {
			repairs, err := m.ReconcileCounters(ctx)
			if err != nil {
				return err
			}
			for _, r := range repairs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s.%s: %d rows fixed\n", r.Table, r.Column, r.Fixed)
			}
			return nil
		})
	},
}

var checkGoalsCmd = &cobra.Command{
	Use:   "check-goals",
	Short: "Mark overdue active goals inactive and notify their owners",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMaintenance(cmd.Context(), func(ctx context.Context, m *service.MaintenanceService) error {
			n, err := m.CheckGoals(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d goals deactivated\n", n)
			return nil
		})
	},
}

var checkChallengesCmd = &cobra.Command{
	Use:   "check-challenges",
	Short: "Notify participants of challenges that have ended",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMaintenance(cmd.Context(), func(ctx context.Context, m *service.MaintenanceService) error {
			n, err := m.CheckChallenges(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d challenges ended\n", n)
			return nil
		})
	},
}

func withMaintenance(ctx context.Context, fn func(context.Context, *service.MaintenanceService) error) error {
	cfg, db, err := app.Open()
	if err != nil {
		return err
	}
	defer closeDB(db)
	return fn(ctx, maintenance(ctx, cfg, db))
}

func maintenance(ctx context.Context, cfg *config.Config, db *gorm.DB) *service.MaintenanceService {
	return app.Maintenance(cfg, db, app.Integrations(ctx, cfg))
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd, reconcileCmd, checkGoalsCmd, checkChallengesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
