package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Email     EmailConfig
	Chat      ChatConfig
	Dashboard DashboardConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name     string
	Version  string
	Debug    bool
	Port     string
	Host     string
	Timezone string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL     string
	Timeout time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	Enabled    bool
	SMTPHost   string
	SMTPPort   int
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	AdminEmail string
}

// ChatConfig controls conversation housekeeping
type ChatConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration // zero disables the sweep job
}

// DashboardConfig holds presentation settings for the stats snapshot
type DashboardConfig struct {
	BudgetBrackets []string
}

var globalConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "SitePulse Interaction API"),
			Version:  getEnv("APP_VERSION", "1.0.0"),
			Debug:    getEnvAsBool("DEBUG", false),
			Port:     getEnv("PORT", "8000"),
			Host:     getEnv("HOST", "0.0.0.0"),
			Timezone: getEnv("TIMEZONE", "Local"),
		},
		Database: DatabaseConfig{
			URL:     getEnv("DATABASE_URL", "sqlite:///./interactions.db"),
			Timeout: time.Duration(getEnvAsInt("DB_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Enabled:    getEnvAsBool("EMAIL_ENABLED", false),
			SMTPHost:   getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:   getEnvAsInt("SMTP_PORT", 587),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			FromEmail:  getEnv("EMAIL_FROM", "noreply@sitepulse.dev"),
			FromName:   getEnv("EMAIL_FROM_NAME", "SitePulse"),
			AdminEmail: getEnv("ADMIN_EMAIL", ""),
		},
		Chat: ChatConfig{
			IdleTimeout:   time.Duration(getEnvAsInt("CHAT_IDLE_TIMEOUT_MINUTES", 30)) * time.Minute,
			SweepInterval: time.Duration(getEnvAsInt("CHAT_SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		},
		Dashboard: DashboardConfig{
			BudgetBrackets: getEnvAsSlice("DASHBOARD_BUDGET_BRACKETS",
				[]string{"under-5k", "5k-10k", "10k-25k", "25k-50k", "50k-plus"}),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	globalConfig = config
	return config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Database.Timeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT_SECONDS must be greater than 0")
	}
	if cfg.Chat.IdleTimeout <= 0 {
		return fmt.Errorf("CHAT_IDLE_TIMEOUT_MINUTES must be greater than 0")
	}
	if cfg.Chat.SweepInterval < 0 {
		return fmt.Errorf("CHAT_SWEEP_INTERVAL_MINUTES must not be negative")
	}
	if _, err := cfg.App.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if cfg.Email.Enabled && cfg.Email.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL must be set when EMAIL_ENABLED is true")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		// Load default config if not loaded
		config, _ := Load()
		return config
	}
	return globalConfig
}

// Location resolves the configured timezone used for calendar-day boundaries.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") ||
		strings.HasPrefix(c.URL, "postgresql://") ||
		strings.Contains(c.URL, "host=")
}

// GetPostgresDSN returns the connection string for the postgres driver.
// pgx accepts both URL and key=value forms, so the URL is passed through.
func (c *DatabaseConfig) GetPostgresDSN() string {
	return c.URL
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
