package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBase() *Config {
	cfg := &Config{}
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Postgres.Database = "inventory"
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validBase()

	assert.Equal(t, "stock-monitor", cfg.App.Name)
	assert.Equal(t, 4*time.Hour, cfg.Monitor.Cooldown)
	assert.Equal(t, "* * * * *", cfg.Monitor.CronSchedule)
	assert.Equal(t, 4, cfg.Monitor.FanoutWorkers)
	assert.Equal(t, 3, cfg.Monitor.MaxRetries)
	assert.Equal(t, 7, cfg.Monitor.DefaultLeadTimeDays)
	assert.InDelta(t, 0.5, cfg.Monitor.CriticalRatio, 0.0001)
	assert.Equal(t, []string{"admin", "manager"}, cfg.Notifications.EligibleRoles)
	assert.Equal(t, "inventory:stock-events", cfg.Events.Channel)
	assert.Equal(t, "stock-scan-audit", cfg.Audit.Index)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults pass",
			mutate: func(*Config) {},
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Database.Postgres.Host = "" },
			wantErr: "postgres.host",
		},
		{
			name:    "cooldown below a minute",
			mutate:  func(c *Config) { c.Monitor.Cooldown = 30 * time.Second },
			wantErr: "cooldown",
		},
		{
			name:    "critical ratio out of range",
			mutate:  func(c *Config) { c.Monitor.CriticalRatio = 1.5 },
			wantErr: "critical_ratio",
		},
		{
			name: "email enabled without sender",
			mutate: func(c *Config) {
				c.Notifications.EmailEnabled = true
				c.Notifications.AWSRegion = "us-east-1"
			},
			wantErr: "from_email",
		},
		{
			name: "sms enabled without region",
			mutate: func(c *Config) {
				c.Notifications.SMSEnabled = true
			},
			wantErr: "aws_region",
		},
		{
			name:    "audit enabled without addresses",
			mutate:  func(c *Config) { c.Audit.Enabled = true },
			wantErr: "elasticsearch.addresses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
