// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	// Local overrides come from .env when present; absence is not an error.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_HOST.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml.
	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stock-monitor"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9100"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Monitor.CronSchedule == "" {
		cfg.Monitor.CronSchedule = "* * * * *"
	}
	if cfg.Monitor.Cooldown == 0 {
		cfg.Monitor.Cooldown = 4 * time.Hour
	}
	if cfg.Monitor.FanoutWorkers == 0 {
		cfg.Monitor.FanoutWorkers = 4
	}
	if cfg.Monitor.MaxRetries == 0 {
		cfg.Monitor.MaxRetries = 3
	}
	if cfg.Monitor.RetryBackoff == 0 {
		cfg.Monitor.RetryBackoff = 2 * time.Second
	}
	if cfg.Monitor.DefaultLeadTimeDays == 0 {
		cfg.Monitor.DefaultLeadTimeDays = 7
	}
	if cfg.Monitor.CriticalRatio == 0 {
		cfg.Monitor.CriticalRatio = 0.5
	}

	if len(cfg.Notifications.EligibleRoles) == 0 {
		cfg.Notifications.EligibleRoles = []string{"admin", "manager"}
	}
	if len(cfg.Notifications.EligiblePermissions) == 0 {
		cfg.Notifications.EligiblePermissions = []string{"stock.notifications.receive"}
	}

	if cfg.Events.Channel == "" {
		cfg.Events.Channel = "inventory:stock-events"
	}
	if cfg.Audit.Index == "" {
		cfg.Audit.Index = "stock-scan-audit"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Monitor.Cooldown < time.Minute {
		return fmt.Errorf("monitor.cooldown must be at least one minute, got %s", cfg.Monitor.Cooldown)
	}
	if cfg.Monitor.CriticalRatio <= 0 || cfg.Monitor.CriticalRatio >= 1 {
		return fmt.Errorf("monitor.critical_ratio must be in (0, 1), got %f", cfg.Monitor.CriticalRatio)
	}
	if cfg.Notifications.EmailEnabled && cfg.Notifications.FromEmail == "" {
		return fmt.Errorf("notifications.from_email is required when email is enabled")
	}
	if (cfg.Notifications.EmailEnabled || cfg.Notifications.SMSEnabled) && cfg.Notifications.AWSRegion == "" {
		return fmt.Errorf("notifications.aws_region is required when a delivery channel is enabled")
	}
	if cfg.Audit.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when audit is enabled")
	}
	return nil
}
