package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/cache"
	"github.com/ekaya-inc/milestone-gateway/pkg/config"
	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/logging"
	"github.com/ekaya-inc/milestone-gateway/pkg/retry"
)

// commandContext lazily loads configuration and shared resources for subcommands.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error

	db *database.DB
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := "config.yaml"
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.LoadFrom(path, Version)
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewLogger(cfg.Env)
	})
	return c.logger, c.loggerErr
}

// openDatabase connects to PostgreSQL, waiting out a database that is still starting.
func (c *commandContext) openDatabase(ctx context.Context) (*database.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		db, err := database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
		if err != nil {
			logger.Warn("Database not ready", zap.String("host", cfg.Database.Host), zap.Error(err))
		}
		return db, err
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	c.db = db
	return db, nil
}

// openMigrationDB opens a database/sql handle for golang-migrate.
func (c *commandContext) openMigrationDB() (*sql.DB, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	return db, nil
}

func (c *commandContext) close() {
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// adminApplication builds the services needed by one-shot admin subcommands.
// These never touch the system prompt cache or the model.
func (c *commandContext) adminApplication(cmd *cobra.Command) (*application, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.APIKeySecret == "" {
		return nil, errors.New("API_KEY_SECRET is required to manage API keys")
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	db, err := c.openDatabase(cmd.Context())
	if err != nil {
		return nil, err
	}
	return newApplication(cfg, db, cache.NewMemoryCache(cfg.Cache.SystemPromptTTL), nil, logger)
}
