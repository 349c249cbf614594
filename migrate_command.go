package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/retry"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return migrateUp(cmd.Context(), ctx, logger)
		},
	})

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			sqlDB, err := ctx.openMigrationDB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			return database.RollbackMigrations(sqlDB, steps, logger)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(downCmd)

	return migrateCmd
}

// migrateUp applies pending migrations, waiting for the database to accept connections first.
func migrateUp(ctx context.Context, cc *commandContext, logger *zap.Logger) error {
	sqlDB, err := cc.openMigrationDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return sqlDB.PingContext(ctx)
	}); err != nil {
		return fmt.Errorf("connect to database for migrations: %w", err)
	}

	return database.RunMigrations(sqlDB, logger)
}
