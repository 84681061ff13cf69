package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/selfservice/pkg/email"
	"github.com/platinummonkey/selfservice/pkg/observability"
	"github.com/platinummonkey/selfservice/pkg/ticket"
)

const envPrefix = "SELFSERVICE_"

// Registry types
const (
	RegistryHTTP = "http"
	RegistryFile = "file"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Registry      RegistryConfig
	Refresh       RefreshConfig
	Locale        LocaleConfig
	Features      FeatureConfig
	Email         EmailConfig
	Ticket        ticket.Config
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds the Postgres settings for actions, facets and the CRM source
type DatabaseConfig struct {
	PostgresURL string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
}

// RedisConfig holds the optional redis settings backing the registry fallback
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// Enabled reports whether a redis URL was configured
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// RegistryConfig selects and configures the provider registry
type RegistryConfig struct {
	Type    string
	URL     string
	File    string
	Timeout time.Duration
	Watch   bool
}

// RefreshConfig holds the cron schedules of the snapshot caches
type RefreshConfig struct {
	Services  string
	Providers string
	Crm       string
	Timeout   time.Duration
	// MaxAge after which readiness reports a cache as stale; zero disables
	MaxAge time.Duration
}

// LocaleConfig holds the locales the catalog is rendered in
type LocaleConfig struct {
	Default   string
	Supported []string
	CacheSize int
	CacheTTL  time.Duration
}

// FeatureConfig toggles the optional action pipeline steps
type FeatureConfig struct {
	EmailEnabled  bool
	TicketEnabled bool
}

// EmailConfig holds the administration mailbox and SMTP relay settings
type EmailConfig struct {
	AdminEmails string
	// CC is copied on the reply link offered to the administration mailbox
	CC   string
	SMTP email.SMTPConfig
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel

	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Registry:      loadRegistryConfig(),
		Refresh:       loadRefreshConfig(),
		Locale:        loadLocaleConfig(),
		Features:      loadFeatureConfig(),
		Email:         loadEmailConfig(),
		Ticket:        loadTicketConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),
		ReadTimeout:     getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		HealthPort:      getEnv("HEALTH_PORT", "9090"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		PostgresURL: getEnv("POSTGRES_URL", ""),
		MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
		MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
		Timeout:     getEnvDuration("POSTGRES_TIMEOUT", 5*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("REDIS_URL", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
	}
}

func loadRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Type:    strings.ToLower(getEnv("REGISTRY_TYPE", RegistryHTTP)),
		URL:     getEnv("REGISTRY_URL", ""),
		File:    getEnv("REGISTRY_FILE", ""),
		Timeout: getEnvDuration("REGISTRY_TIMEOUT", 30*time.Second),
		Watch:   getEnvBool("REGISTRY_WATCH", false),
	}
}

func loadRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Services:  getEnv("SERVICES_REFRESH", "@every 5m"),
		Providers: getEnv("PROVIDERS_REFRESH", "@every 1m"),
		Crm:       getEnv("CRM_REFRESH", "@every 15m"),
		Timeout:   getEnvDuration("REFRESH_TIMEOUT", 2*time.Minute),
		MaxAge:    getEnvDuration("REFRESH_MAX_AGE", time.Hour),
	}
}

func loadLocaleConfig() LocaleConfig {
	return LocaleConfig{
		Default:   strings.ToLower(getEnv("DEFAULT_LOCALE", "en")),
		Supported: getEnvList("LOCALES", []string{"en", "nl"}),
		CacheSize: getEnvInt("LOCALE_CACHE_SIZE", 8),
		CacheTTL:  getEnvDuration("LOCALE_CACHE_TTL", 0),
	}
}

func loadFeatureConfig() FeatureConfig {
	return FeatureConfig{
		EmailEnabled:  getEnvBool("EMAIL_ENABLED", false),
		TicketEnabled: getEnvBool("TICKET_ENABLED", false),
	}
}

func loadEmailConfig() EmailConfig {
	return EmailConfig{
		AdminEmails: getEnv("ADMIN_EMAILS", ""),
		CC:          getEnv("EMAIL_CC", ""),
		SMTP: email.SMTPConfig{
			Addr:     getEnv("SMTP_ADDR", "localhost:25"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			Workers:  getEnvInt("SMTP_WORKERS", 2),
			Queue:    getEnvInt("SMTP_QUEUE", 100),
			Timeout:  getEnvDuration("SMTP_TIMEOUT", 30*time.Second),
		},
	}
}

func loadTicketConfig() ticket.Config {
	return ticket.Config{
		URL:          getEnv("TICKET_URL", ""),
		Project:      getEnv("TICKET_PROJECT", "CSA"),
		ClientID:     getEnv("TICKET_CLIENT_ID", ""),
		ClientSecret: getEnv("TICKET_CLIENT_SECRET", ""),
		TokenURL:     getEnv("TICKET_TOKEN_URL", ""),
		Timeout:      getEnvDuration("TICKET_TIMEOUT", 15*time.Second),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("OTEL_SERVICE_NAME", "selfservice"),
		OTelServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	switch c.Registry.Type {
	case RegistryHTTP:
		if c.Registry.URL == "" {
			return fmt.Errorf("registry URL is required for http registry")
		}
		if c.Registry.Watch {
			return fmt.Errorf("registry watch is only supported for the file registry")
		}
	case RegistryFile:
		if c.Registry.File == "" {
			return fmt.Errorf("registry file is required for file registry")
		}
	default:
		return fmt.Errorf("invalid registry type: %s (must be http or file)", c.Registry.Type)
	}

	if c.Locale.Default == "" {
		return fmt.Errorf("default locale is required")
	}
	if !contains(c.Locale.Supported, c.Locale.Default) {
		return fmt.Errorf("default locale %s is not in the supported locales %v", c.Locale.Default, c.Locale.Supported)
	}

	if c.Features.EmailEnabled {
		if len(email.ParseAddressList(c.Email.AdminEmails)) == 0 {
			return fmt.Errorf("admin emails are required when email is enabled")
		}
		if c.Email.SMTP.Addr == "" {
			return fmt.Errorf("SMTP address is required when email is enabled")
		}
	}

	if c.Features.TicketEnabled {
		if c.Ticket.URL == "" {
			return fmt.Errorf("ticket URL is required when ticketing is enabled")
		}
		if c.Ticket.ClientID != "" && c.Ticket.TokenURL == "" {
			return fmt.Errorf("ticket token URL is required when a ticket client id is set")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable, lowercased, or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			list = append(list, part)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}
