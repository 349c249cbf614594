package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/cache"
	"github.com/ekaya-inc/milestone-gateway/pkg/config"
	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/llm"
	"github.com/ekaya-inc/milestone-gateway/pkg/repositories"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// application holds the services shared by the server and the admin subcommands.
type application struct {
	milestones    services.MilestoneService
	validators    services.ValidatorService
	policies      services.PolicyService
	systemPrompts services.SystemPromptService
	apiKeys       services.APIKeyService
	analysis      services.AnalysisService
}

// newApplication wires repositories into services. analyzer may be nil for
// commands that never run an analysis; apiKeys stays nil without API_KEY_SECRET.
func newApplication(
	cfg *config.Config,
	db *database.DB,
	promptCache cache.SystemPromptCache,
	analyzer llm.VideoAnalyzer,
	logger *zap.Logger,
) (*application, error) {
	milestoneRepo := repositories.NewMilestoneRepository(db)
	validatorRepo := repositories.NewValidatorRepository(db)
	policyRepo := repositories.NewPolicyRepository(db)
	systemPromptRepo := repositories.NewSystemPromptRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)

	app := &application{
		milestones:    services.NewMilestoneService(milestoneRepo, validatorRepo, policyRepo, logger),
		validators:    services.NewValidatorService(milestoneRepo, validatorRepo, logger),
		policies:      services.NewPolicyService(policyRepo, db, logger),
		systemPrompts: services.NewSystemPromptService(systemPromptRepo, promptCache, logger),
	}
	if cfg.Auth.APIKeySecret != "" {
		apiKeyService, err := services.NewAPIKeyService(apiKeyRepo, cfg.Auth.APIKeySecret, logger)
		if err != nil {
			return nil, fmt.Errorf("create api key service: %w", err)
		}
		app.apiKeys = apiKeyService
	}
	if analyzer != nil {
		app.analysis = services.NewAnalysisService(milestoneRepo, validatorRepo, systemPromptRepo, policyRepo, analyzer, logger)
	}
	return app, nil
}
