package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pondermatic/strategy11-challenge/src/repository"
	"github.com/pondermatic/strategy11-challenge/src/service"
)

type AppConfig struct {
	// =========================== REQUIRED ===========================

	// Secret used to sign anti-forgery tokens (required)
	NonceSecret *string `validate:"required,min=16"`
	// API secret identifying operators over HTTP (required)
	APISecret *string `validate:"required"`

	// Redis configuration (required when CACHE_BACKEND=redis)
	RedisAddr *string
	// Database configuration (required when CACHE_BACKEND=postgres)
	DSN *string

	// =========================== OPTIONAL ===========================

	// Upstream challenge API
	ChallengeAPIURL *string `validate:"required,url"`

	// REST namespace, also the cache key prefix
	RouteNamespace *string `validate:"required"`

	// Cache configuration
	CacheBackend *string `validate:"required,oneof=redis postgres memory"`
	CacheTTL     *int    `validate:"required,min=1"`

	// Background refill interval in seconds; 0 disables the warmer
	CacheWarmInterval *int `validate:"required,min=0"`

	// Anti-forgery token lifetime in seconds
	NonceTTL *int `validate:"required,min=1"`

	// Admin screen credentials; the screen is disabled without a password
	AdminUser     *string `validate:"required"`
	AdminPassword *string

	// Locale used to collate table columns
	SiteLocale *string `validate:"required,bcp47_language_tag"`

	// Logging configuration
	LogLevel *string `validate:"required,oneof=trace debug info warn error fatal panic disabled"`

	// HTTP server configuration
	Port        *string `validate:"required,numeric"`
	Host        *string `validate:"required"`
	Environment *string `validate:"required"`

	// CORS configuration
	AllowOrigins *[]string `validate:"required,dive,required"`

	// Migration configuration
	MigrationPath *string `validate:"required"`
}

// LoadEnvFile loads .env if it exists, overriding the process environment
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("error loading %s file: %w", path, err)
	}
	return nil
}

func NewAppConfig() (*AppConfig, error) {
	config := &AppConfig{}

	// Load optional configuration with defaults first; required checks depend on the backend
	if err := loadOptionalConfig(config); err != nil {
		return nil, err
	}

	if err := loadRequiredConfig(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the struct tags of the configuration
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// loadRequiredConfig loads all required configuration values and fails fast if any are missing
func loadRequiredConfig(config *AppConfig) error {
	nonceSecret := os.Getenv("NONCE_SECRET")
	if nonceSecret == "" {
		return errors.New("REQUIRED: NONCE_SECRET not set in environment")
	}
	config.NonceSecret = &nonceSecret

	apiSecret := os.Getenv("API_SECRET")
	if apiSecret == "" {
		return errors.New("REQUIRED: API_SECRET not set in environment")
	}
	config.APISecret = &apiSecret

	switch repository.Backend(*config.CacheBackend) {
	case repository.BackendRedis:
		redisAddr := os.Getenv("REDIS_URL")
		if redisAddr == "" {
			return errors.New("REQUIRED: REDIS_URL not set in environment")
		}
		config.RedisAddr = &redisAddr
	case repository.BackendPostgres:
		dsn := os.Getenv("DB_URL")
		if dsn == "" {
			return errors.New("REQUIRED: DB_URL not set in environment")
		}
		config.DSN = &dsn
	}

	// CORS origins (required in production, optional in development)
	return loadCORSConfig(config)
}

// loadOptionalConfig loads all optional configuration values with sensible defaults
func loadOptionalConfig(config *AppConfig) error {
	apiURL := getEnvWithDefault("CHALLENGE_API_URL", service.DefaultChallengeAPIURL)
	config.ChallengeAPIURL = &apiURL

	namespace := strings.Trim(getEnvWithDefault("ROUTE_NAMESPACE", service.DefaultRouteNamespace), "/")
	config.RouteNamespace = &namespace

	backend := strings.ToLower(getEnvWithDefault("CACHE_BACKEND", string(repository.BackendRedis)))
	config.CacheBackend = &backend

	cacheTTL, err := getIntWithDefault("CACHE_TTL", int(service.DefaultCacheTTL/time.Second))
	if err != nil {
		return err
	}
	config.CacheTTL = &cacheTTL

	warmInterval, err := getIntWithDefault("CACHE_WARM_INTERVAL", 0)
	if err != nil {
		return err
	}
	config.CacheWarmInterval = &warmInterval

	nonceTTL, err := getIntWithDefault("NONCE_TTL", int(service.DefaultNonceTTL/time.Second))
	if err != nil {
		return err
	}
	config.NonceTTL = &nonceTTL

	adminUser := getEnvWithDefault("ADMIN_USER", "admin")
	config.AdminUser = &adminUser

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	config.AdminPassword = &adminPassword

	locale := getEnvWithDefault("SITE_LOCALE", "en")
	config.SiteLocale = &locale

	// Log level (default: debug)
	// Available levels: "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"
	logLevel := getEnvWithDefault("LOG_LEVEL", "debug")
	config.LogLevel = &logLevel

	// HTTP server port (default: 8080)
	port := getEnvWithDefault("PORT", "8080")
	config.Port = &port

	host := getEnvWithDefault("HOST", "localhost:"+port)
	config.Host = &host

	environment := getEnvWithDefault("ENVIRONMENT", "dev")
	config.Environment = &environment

	// Migration path (default: file://migrations)
	migrationPath := getEnvWithDefault("MIGRATION_PATH", "file://migrations")
	config.MigrationPath = &migrationPath

	return nil
}

// loadCORSConfig handles CORS origins configuration with environment-specific behavior
func loadCORSConfig(config *AppConfig) error {
	allowOriginsStr := os.Getenv("ALLOW_ORIGINS")
	var allowOrigins []string

	if allowOriginsStr != "" {
		for _, origin := range strings.Split(allowOriginsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowOrigins = append(allowOrigins, origin)
			}
		}
	} else if config.IsDevelopment() {
		// Default to localhost in development
		allowOrigins = []string{"http://localhost:" + *config.Port}
	} else {
		return errors.New("REQUIRED: ALLOW_ORIGINS not set in environment (required in production)")
	}

	config.AllowOrigins = &allowOrigins
	return nil
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Environment != nil && (*c.Environment == "development" || *c.Environment == "dev")
}

func (c *AppConfig) CacheTTLDuration() time.Duration {
	return time.Duration(*c.CacheTTL) * time.Second
}

func (c *AppConfig) CacheWarmIntervalDuration() time.Duration {
	return time.Duration(*c.CacheWarmInterval) * time.Second
}

func (c *AppConfig) NonceTTLDuration() time.Duration {
	return time.Duration(*c.NonceTTL) * time.Second
}

// getIntWithDefault parses an integer environment variable with default fallback
func getIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return parsed, nil
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
