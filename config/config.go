// Package config provides configuration management and environment variable handling for the application
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dispatch providers
const (
	DispatchNone  = "none"
	DispatchRedis = "redis"
	DispatchAMQP  = "amqp"
)

// Config holds all configuration of the mail service. It is built once at startup and
// handed to the components that need it.
type Config struct {
	Environment string          `json:"environment"`
	Database    DatabaseConfig  `json:"database"`
	Server      ServerConfig    `json:"server"`
	Mail        MailConfig      `json:"mail"`
	Admin       AdminConfig     `json:"admin"`
	Logging     LoggingConfig   `json:"logging"`
	Dispatch    DispatchConfig  `json:"dispatch"`
	Scheduler   SchedulerConfig `json:"scheduler"`
	Metrics     MetricsConfig   `json:"metrics"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	AutoMigrate     bool          `json:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RequestTimeout  time.Duration `json:"request_timeout"`
	BodyLimit       int           `json:"body_limit"`
	AllowOrigins    []string      `json:"allow_origins"`
}

type MailConfig struct {
	// DefaultFrom is the reply-to of every broadcast and the sender of its messages
	DefaultFrom     string `json:"default_from"`
	FanoutBatchSize int    `json:"fanout_batch_size"`
}

type AdminConfig struct {
	JWTSecret string        `json:"-"`
	Issuer    string        `json:"issuer"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Format     string `json:"format"` // json, console
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type DispatchConfig struct {
	Provider      string        `json:"provider"` // none, redis, amqp
	RedisURL      string        `json:"redis_url"`
	RedisChannel  string        `json:"redis_channel"`
	AMQPURL       string        `json:"amqp_url"`
	AMQPExchange  string        `json:"amqp_exchange"`
	NotifyTimeout time.Duration `json:"notify_timeout"`
}

// SchedulerConfig drives the broadcast finalizer loop
type SchedulerConfig struct {
	Enabled  bool          `json:"enabled"`
	Interval time.Duration `json:"interval"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoadConfig loads and validates configuration from .env (when present) and the environment
func LoadConfig() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Environment: getEnvString("APP_ENV", "production"),
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "tailwind_mail"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 4*1024*1024), // 4MB
			AllowOrigins:    getEnvStringSlice("SERVER_ALLOW_ORIGINS", []string{"*"}),
		},
		Mail: MailConfig{
			DefaultFrom:     getEnvString("DEFAULT_FROM", "noreply@tailwind.dev"),
			FanoutBatchSize: getEnvInt("MAIL_FANOUT_BATCH_SIZE", 500),
		},
		Admin: AdminConfig{
			JWTSecret: getEnvString("ADMIN_JWT_SECRET", ""),
			Issuer:    getEnvString("ADMIN_JWT_ISSUER", "tailwind-mail"),
			TokenTTL:  getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Format:     getEnvString("LOG_FORMAT", "json"),
			FilePath:   getEnvString("LOG_FILE_PATH", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Dispatch: DispatchConfig{
			Provider:      strings.ToLower(getEnvString("DISPATCH_PROVIDER", DispatchNone)),
			RedisURL:      getEnvString("DISPATCH_REDIS_URL", ""),
			RedisChannel:  getEnvString("DISPATCH_REDIS_CHANNEL", "broadcasts"),
			AMQPURL:       getEnvString("DISPATCH_AMQP_URL", ""),
			AMQPExchange:  getEnvString("DISPATCH_AMQP_EXCHANGE", "mail.events"),
			NotifyTimeout: getEnvDuration("DISPATCH_NOTIFY_TIMEOUT", 3*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvBool("SCHEDULER_ENABLED", true),
			Interval: getEnvDuration("SCHEDULER_INTERVAL", time.Minute),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads variables from path without overriding ones already set
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ValidateConfig validates the configuration and reports every problem at once
func ValidateConfig(cfg *Config) error {
	var errs []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errs = append(errs, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errs = append(errs, "DB_USER is required")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Validate mail configuration
	if !strings.Contains(cfg.Mail.DefaultFrom, "@") {
		errs = append(errs, "DEFAULT_FROM must be an email address")
	}
	if cfg.Mail.FanoutBatchSize <= 0 {
		errs = append(errs, "MAIL_FANOUT_BATCH_SIZE must be positive")
	}

	// Validate admin configuration
	if len(cfg.Admin.JWTSecret) < 32 {
		errs = append(errs, "ADMIN_JWT_SECRET must be at least 32 characters long")
	}
	if cfg.Admin.TokenTTL <= 0 {
		errs = append(errs, "ADMIN_TOKEN_TTL must be positive")
	}

	// Validate logging configuration
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, cfg.Logging.Level) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		errs = append(errs, "LOG_FORMAT must be json or console")
	}

	if cfg.Scheduler.Enabled && cfg.Scheduler.Interval <= 0 {
		errs = append(errs, "SCHEDULER_INTERVAL must be positive")
	}

	// Validate dispatch configuration
	switch cfg.Dispatch.Provider {
	case DispatchNone:
	case DispatchRedis:
		if cfg.Dispatch.RedisURL == "" {
			errs = append(errs, "DISPATCH_REDIS_URL is required when dispatch provider is redis")
		}
	case DispatchAMQP:
		if cfg.Dispatch.AMQPURL == "" {
			errs = append(errs, "DISPATCH_AMQP_URL is required when dispatch provider is amqp")
		}
	default:
		errs = append(errs, "DISPATCH_PROVIDER must be one of: none, redis, amqp")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
