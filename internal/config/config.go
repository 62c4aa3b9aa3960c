package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Identity IdentityConfig
	JWT      JWTConfig
	Server   ServerConfig
	Tenancy  TenancyConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings for provisioning events.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// IdentityConfig holds the external identity provider settings. All three
// values are required: the anon key rides along as the provider's apikey
// header, the service key authorizes admin user mutations.
type IdentityConfig struct {
	BaseURL    string
	AnonKey    string //nolint:gosec // G117: identity provider config
	ServiceKey string //nolint:gosec // G117: identity provider config
	Timeout    time.Duration
}

// JWTConfig holds settings for validating identity-provider access tokens.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// TenancyConfig holds host classification settings. BaseDomain and
// PreviewHost are both optional: a deployment without a base domain still
// resolves local and preview-platform hosts.
type TenancyConfig struct {
	BaseDomain  string
	PreviewHost string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production, the identity
// provider keys and JWT secret must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("BIBLIOTECAI_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("BIBLIOTECAI_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("BIBLIOTECAI_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	identityTimeout, err := getEnvDuration("BIBLIOTECAI_IDENTITY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("BIBLIOTECAI_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("BIBLIOTECAI_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("BIBLIOTECAI_CORS_ORIGINS", []string{"*"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("BIBLIOTECAI_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("BIBLIOTECAI_DB_USER", "bibliotecai"),
			Password: getEnv("BIBLIOTECAI_DB_PASSWORD", ""),
			DBName:   getEnv("BIBLIOTECAI_DB_NAME", "bibliotecai_dev"),
			SSLMode:  getEnv("BIBLIOTECAI_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("BIBLIOTECAI_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("BIBLIOTECAI_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Identity: IdentityConfig{
			BaseURL:    getEnv("BIBLIOTECAI_IDENTITY_URL", ""),
			AnonKey:    getEnv("BIBLIOTECAI_IDENTITY_ANON_KEY", ""),
			ServiceKey: getEnv("BIBLIOTECAI_IDENTITY_SERVICE_KEY", ""),
			Timeout:    identityTimeout,
		},
		JWT: JWTConfig{
			Secret: getEnv("BIBLIOTECAI_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:         getEnv("BIBLIOTECAI_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Tenancy: TenancyConfig{
			BaseDomain:  strings.ToLower(getEnv("BIBLIOTECAI_BASE_DOMAIN", "")),
			PreviewHost: strings.ToLower(getEnv("BIBLIOTECAI_PREVIEW_HOST", "")),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds. The identity provider
// settings are hard requirements: provisioning cannot degrade gracefully
// without them, so the process refuses to start instead of answering every
// redemption with a server-configuration error.
func (c *Config) validate() error {
	if c.Identity.BaseURL == "" {
		return errors.New("BIBLIOTECAI_IDENTITY_URL is required")
	}
	if _, err := url.Parse(c.Identity.BaseURL); err != nil {
		return fmt.Errorf("BIBLIOTECAI_IDENTITY_URL is not a valid URL: %w", err)
	}
	if c.Identity.AnonKey == "" {
		return errors.New("BIBLIOTECAI_IDENTITY_ANON_KEY is required")
	}
	if c.Identity.ServiceKey == "" {
		return errors.New("BIBLIOTECAI_IDENTITY_SERVICE_KEY is required")
	}

	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("BIBLIOTECAI_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("BIBLIOTECAI_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("BIBLIOTECAI_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("BIBLIOTECAI_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("BIBLIOTECAI_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("BIBLIOTECAI_IDENTITY_TIMEOUT must be positive, got %s", c.Identity.Timeout)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("BIBLIOTECAI_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("BIBLIOTECAI_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
