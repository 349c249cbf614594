package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for milestone-gateway.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys, tokens) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// MaxUploadBytes caps the size of a video accepted by /api/analyze.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"104857600"`

	// MigrationsOnStart applies pending schema migrations when the server boots.
	MigrationsOnStart bool `yaml:"migrations_on_start" env:"MIGRATIONS_ON_START" env-default:"true"`

	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Model    ModelConfig    `yaml:"model"`
	Cache    CacheConfig    `yaml:"cache"`
}

// AuthConfig holds API key and admin access configuration.
type AuthConfig struct {
	// AdminToken guards the admin API and the MCP endpoint.
	AdminToken string `yaml:"-" env:"ADMIN_TOKEN"` // Secret - not in YAML

	// APIKeySecret is the HMAC secret used to hash API keys at rest.
	// Accepts a base64-encoded 32-byte key or any passphrase.
	APIKeySecret string `yaml:"-" env:"API_KEY_SECRET"` // Secret - not in YAML

	// RateLimitRPS is the sustained request rate allowed per API key.
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS" env-default:"2"`
	// RateLimitBurst is the burst size allowed per API key.
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" env-default:"5"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"milestones"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"milestone_gateway"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis configuration. Redis is optional; an empty host
// selects the in-process cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// ModelConfig holds the OpenAI-compatible multimodal endpoint used for analysis.
type ModelConfig struct {
	BaseURL     string        `yaml:"base_url" env:"MODEL_BASE_URL" env-default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	Model       string        `yaml:"model" env:"MODEL_NAME" env-default:"gemini-2.5-flash"`
	APIKey      string        `yaml:"-" env:"MODEL_API_KEY"` // Secret - not in YAML
	Temperature float64       `yaml:"temperature" env:"MODEL_TEMPERATURE" env-default:"0"`
	Timeout     time.Duration `yaml:"timeout" env:"MODEL_TIMEOUT" env-default:"0s"` // 0 disables the timeout
}

// CacheConfig holds read-cache settings.
type CacheConfig struct {
	// SystemPromptTTL bounds how stale the cached current system prompt may be.
	SystemPromptTTL time.Duration `yaml:"system_prompt_ttl" env:"SYSTEM_PROMPT_CACHE_TTL" env-default:"60s"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// A missing config.yaml is not an error; environment variables and defaults apply.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML path with environment overrides.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validate checks values that cleanenv cannot express as tags.
func (c *Config) validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.Auth.RateLimitRPS <= 0 {
		return fmt.Errorf("rate_limit_rps must be positive")
	}
	if c.Auth.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_burst must be positive")
	}
	if c.Model.Timeout < 0 {
		return fmt.Errorf("model timeout must not be negative")
	}
	if c.Cache.SystemPromptTTL < 0 {
		return fmt.Errorf("system_prompt_ttl must not be negative")
	}
	return nil
}

// IsLocal reports whether the server runs in a local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether Redis is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}
