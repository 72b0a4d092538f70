// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Events        EventsConfig       `mapstructure:"events"`
	Audit         AuditConfig        `mapstructure:"audit"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// --- Domain Configuration Sections ---

// MonitorConfig holds settings for the scan-and-notify pipeline.
type MonitorConfig struct {
	CronSchedule        string        `mapstructure:"cron_schedule"`
	Cooldown            time.Duration `mapstructure:"cooldown"`
	FanoutWorkers       int           `mapstructure:"fanout_workers"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff"`
	DefaultLeadTimeDays int           `mapstructure:"default_lead_time_days"`
	DefaultSafetyStock  int           `mapstructure:"default_safety_stock"`
	CriticalRatio       float64       `mapstructure:"critical_ratio"`
	PersistThresholds   bool          `mapstructure:"persist_thresholds"`
}

// NotificationConfig holds delivery channel and eligibility settings.
type NotificationConfig struct {
	EmailEnabled        bool     `mapstructure:"email_enabled"`
	SMSEnabled          bool     `mapstructure:"sms_enabled"`
	FromEmail           string   `mapstructure:"from_email"`
	AWSRegion           string   `mapstructure:"aws_region"`
	EligibleRoles       []string `mapstructure:"eligible_roles"`
	EligiblePermissions []string `mapstructure:"eligible_permissions"`
}

// EventsConfig holds the stock-change event subscription settings.
type EventsConfig struct {
	Channel string `mapstructure:"channel"`
}

// AuditConfig holds the optional Elasticsearch scan-audit sink settings.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
