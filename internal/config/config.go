package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Legacy    LegacyConfig    `yaml:"legacy"`
	Session   SessionConfig   `yaml:"session"`
	Fees      FeeConfig       `yaml:"fees"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
	// BanExemptPrefixes are request paths never subject to the ban check
	BanExemptPrefixes []string `yaml:"ban_exempt_prefixes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"` // mysql, postgres, sqlite
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLiteConfig contains SQLite settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LegacyConfig points at the externally managed schema used by the importer
type LegacyConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// SessionConfig contains login session settings
type SessionConfig struct {
	CookieName       string `yaml:"cookie_name"`
	TTLHours         int    `yaml:"ttl_hours"`
	RememberTTLHours int    `yaml:"remember_ttl_hours"`
	Secure           bool   `yaml:"secure"`
	BcryptCost       int    `yaml:"bcrypt_cost"`
}

// FeeConfig contains the flat inspection fees, as decimal strings ("150.00")
type FeeConfig struct {
	NewConstruction string `yaml:"new_construction"`
	Reinspection    string `yaml:"reinspection"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
}

// RateLimitConfig contains login/signup throttling settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// SchedulerConfig contains background job settings
type SchedulerConfig struct {
	Enabled              bool   `yaml:"enabled"`
	SessionPurgeInterval string `yaml:"session_purge_interval"` // cron "@every" duration
	ReconcileTime        string `yaml:"reconcile_time"`         // HH:MM
	ReindexTime          string `yaml:"reindex_time"`           // HH:MM, empty disables
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"` // silent, error, warn, info
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "8080",
			AllowOrigins:      []string{"http://localhost:3000"},
			BanExemptPrefixes: []string{"/static/", "/media/", "/admin/panel/", "/banned", "/health"},
		},
		Database: DatabaseConfig{
			Type: "mysql",
			SQLite: SQLiteConfig{
				Path: "inspection.db",
			},
		},
		Session: SessionConfig{
			CookieName:       "inspection_session",
			TTLHours:         12,
			RememberTTLHours: 24 * 14,
			BcryptCost:       10,
		},
		Fees: FeeConfig{
			NewConstruction: "0.00",
			Reinspection:    "0.00",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			RequestsPerHour:   100,
		},
		Scheduler: SchedulerConfig{
			Enabled:              true,
			SessionPurgeInterval: "1h",
			ReconcileTime:        "03:00",
		},
		Logging: LoggingConfig{
			Level:       "warn",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks settings that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Session.TTLHours <= 0 || c.Session.RememberTTLHours <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// GetTTL returns the lifetime of a session without "remember me"
func (c *SessionConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// GetRememberTTL returns the lifetime of a remembered session
func (c *SessionConfig) GetRememberTTL() time.Duration {
	return time.Duration(c.RememberTTLHours) * time.Hour
}

// GetEnv returns the environment value for key or defaultValue when unset
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func GetEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return GetEnv(envKey, defaultValue)
}
