package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/cache"
	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/handlers"
	"github.com/ekaya-inc/milestone-gateway/pkg/llm"
	"github.com/ekaya-inc/milestone-gateway/pkg/logging"
	"github.com/ekaya-inc/milestone-gateway/pkg/mcp"
	"github.com/ekaya-inc/milestone-gateway/pkg/middleware"
)

const (
	shutdownTimeout      = 30 * time.Second
	rateLimiterIdleAfter = 10 * time.Minute
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(parent context.Context, cc *commandContext) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cc.ensureLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting milestone-gateway",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.String("model", cfg.Model.Model))

	if cfg.Auth.APIKeySecret == "" {
		return errors.New("API_KEY_SECRET is required to serve /api/analyze")
	}
	if cfg.Auth.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is not set; admin API and MCP endpoint will reject every request")
	}
	if cfg.Model.APIKey == "" {
		logger.Warn("MODEL_API_KEY is not set; the model provider will likely reject analysis requests")
	}

	if cfg.MigrationsOnStart {
		if err := migrateUp(ctx, cc, logger); err != nil {
			return err
		}
	}

	db, err := cc.openDatabase(ctx)
	if err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("Using Redis for the system prompt cache", zap.String("addr", cfg.Redis.Addr()))
	}
	promptCache := cache.New(redisClient, cfg.Cache.SystemPromptTTL)

	analyzer, err := llm.NewClient(&llm.Config{
		Endpoint:    cfg.Model.BaseURL,
		Model:       cfg.Model.Model,
		APIKey:      cfg.Model.APIKey,
		Temperature: cfg.Model.Temperature,
		Timeout:     cfg.Model.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("create model client: %w", err)
	}

	app, err := newApplication(cfg, db, promptCache, analyzer, logger)
	if err != nil {
		return err
	}

	limiter := auth.NewKeyRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)
	limiter.StartCleanup(ctx, rateLimiterIdleAfter)
	authMiddleware := auth.NewMiddleware(app.apiKeys, limiter, cfg.Auth.AdminToken, logger)

	mcpServer := mcp.NewServer(mcp.Deps{
		Version:          cfg.Version,
		Model:            cfg.Model.Model,
		MilestoneService: app.milestones,
	}, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAnalyzeHandler(app.analysis, cfg.MaxUploadBytes, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewMilestoneHandler(app.milestones, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewValidatorHandler(app.validators, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewPolicyHandler(app.policies, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSystemPromptHandler(app.systemPrompts, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAPIKeyHandler(app.apiKeys, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, authMiddleware)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
