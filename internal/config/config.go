package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken  string
	BotDisabled    bool
	WebhookURL     string
	StorageDriver  string
	DatabaseURL    string
	SQLitePath     string
	MigrationsPath string
	LogLevel       string
	LogFile        string
	LogMaxSizeMB   int
	Port           string
	PrometheusPort string
	CORSOrigins    []string
	CurrencyLabel  string

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		BotDisabled:    getEnvBoolOrDefault("BOT_DISABLED", false),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		StorageDriver:  strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", DriverPostgres)),
		SQLitePath:     getEnvOrDefault("SQLITE_PATH", "data/wishlist.db"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
		LogMaxSizeMB:   getEnvIntOrDefault("LOG_MAX_SIZE_MB", 50),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		CORSOrigins:    splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		CurrencyLabel:  getEnvOrDefault("CURRENCY_LABEL", "tenge"),
	}

	var err error
	if cfg.SessionIdleTimeout, err = getEnvDurationOrDefault("SESSION_IDLE_TIMEOUT", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	// Required environment variables
	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" && !cfg.BotDisabled {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required")
		}
	case DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
