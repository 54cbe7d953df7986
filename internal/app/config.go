package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the dashboard service.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	StatsAPIBaseURL string        `envconfig:"STATS_API_BASE_URL" default:"http://localhost:8080/api"`
	StatsAPITimeout time.Duration `envconfig:"STATS_API_TIMEOUT" default:"10s"`

	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SyncChannel string `envconfig:"SYNC_CHANNEL" default:"export-statistics:synced"`
	RefreshCron string `envconfig:"REFRESH_CRON" default:"@every 15m"`

	DashboardLocale      string `envconfig:"DASHBOARD_LOCALE" default:"ko"`
	DashboardOrdering    string `envconfig:"DASHBOARD_ORDERING" default:"last-issued"`
	DashboardStrictYears bool   `envconfig:"DASHBOARD_STRICT_YEARS" default:"false"`
	TrendWindowYears     int    `envconfig:"TREND_WINDOW_YEARS" default:"5"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	base := strings.TrimSpace(c.StatsAPIBaseURL)
	if base == "" {
		return errors.New("statistics api base url must be provided")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("statistics api base url %q is not absolute", base)
	}
	if c.StatsAPITimeout <= 0 {
		return errors.New("statistics api timeout must be positive")
	}
	if c.TrendWindowYears <= 0 {
		return errors.New("trend window must be at least one year")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
