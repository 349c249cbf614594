package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/cache"
	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/seed"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var file string
	var createdBy string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load milestones, policies and a system prompt from a YAML fixture",
		Long: "Load milestones, policies and a system prompt from a YAML fixture.\n" +
			"Valid categories: " + strings.Join(seed.Categories(), ", ") + ".\n" +
			"Everything is created in one transaction; running twice creates duplicates.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			db, err := ctx.openDatabase(cmd.Context())
			if err != nil {
				return err
			}

			redisClient, err := database.NewRedisClient(cmd.Context(), &cfg.Redis)
			if err != nil {
				return err
			}
			if redisClient != nil {
				defer redisClient.Close()
			}

			app, err := newApplication(cfg, db, cache.New(redisClient, cfg.Cache.SystemPromptTTL), nil, logger)
			if err != nil {
				return err
			}

			var summary *seed.Summary
			err = db.WithTx(cmd.Context(), func(txCtx context.Context) error {
				var applyErr error
				summary, applyErr = seed.Apply(txCtx, seed.Services{
					Milestones:    app.milestones,
					Validators:    app.validators,
					Policies:      app.policies,
					SystemPrompts: app.systemPrompts,
				}, fixture, createdBy, logger)
				return applyErr
			})
			if err != nil {
				return fmt.Errorf("seed %s: %w", file, err)
			}

			logger.Info("Seed applied",
				zap.String("file", file),
				zap.Int("policies", summary.Policies),
				zap.Int("milestones", summary.Milestones),
				zap.Int("validators", summary.Validators),
				zap.Bool("system_prompt", summary.SystemPrompt))
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d policies, %d milestones, %d validators\n",
				summary.Policies, summary.Milestones, summary.Validators)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "fixtures/seed.yaml", "Fixture file to load")
	cmd.Flags().StringVar(&createdBy, "created-by", "seed", "Creator recorded on the seeded system prompt")
	return cmd
}
