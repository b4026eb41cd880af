package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken          string  `yaml:"bot_token"`
		Debug             bool    `yaml:"debug"`
		MessagesPerSec    float64 `yaml:"messages_per_second"`
		MessagesBurst     int     `yaml:"messages_burst"`
		UpdateTimeoutSecs int     `yaml:"update_timeout_seconds"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Report struct {
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
		Timezone        string `yaml:"timezone"`
	} `yaml:"report"`

	API struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"api"`

	GRPC struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"grpc"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Schedule struct {
		Enabled        bool   `yaml:"enabled"`
		WeeklySummary  string `yaml:"weekly_summary"`
		MonthlyExport  string `yaml:"monthly_export"`
		Backup         string `yaml:"backup"`
		TomorrowDigest string `yaml:"tomorrow_digest"`
	} `yaml:"schedule"`

	Google struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
	} `yaml:"google"`

	Managers   []int64 `yaml:"managers"`
	PricesPath string  `yaml:"prices_path"`
}

// Load reads the YAML config. A .env file next to the working directory is
// loaded first so ${ENV_VAR} placeholders can refer to it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	// Missing .env is fine; real environment wins over it.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if _, err = cfg.Location(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/vrlounge.db"
	}
	if c.PricesPath == "" {
		c.PricesPath = "configs/prices.yaml"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 14
	}
	if c.Telegram.MessagesPerSec <= 0 {
		c.Telegram.MessagesPerSec = 20
	}
	if c.Telegram.MessagesBurst <= 0 {
		c.Telegram.MessagesBurst = 5
	}
	if c.Telegram.UpdateTimeoutSecs <= 0 {
		c.Telegram.UpdateTimeoutSecs = 60
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 9091
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Schedule.WeeklySummary == "" {
		c.Schedule.WeeklySummary = "0 10 * * 1"
	}
	if c.Schedule.MonthlyExport == "" {
		c.Schedule.MonthlyExport = "5 0 1 * *"
	}
	if c.Schedule.Backup == "" {
		c.Schedule.Backup = "30 3 * * *"
	}
	if c.Schedule.TomorrowDigest == "" {
		c.Schedule.TomorrowDigest = "0 20 * * *"
	}
	if c.Report.Timezone == "" {
		c.Report.Timezone = "Europe/Moscow"
	}
}

// CacheTTL is how long computed reports stay in Redis; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	if c.Report.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Report.CacheTTLSeconds) * time.Second
}

// BackupRetention is how long backup files are kept.
func (c *Config) BackupRetention() time.Duration {
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}

// UpdateTimeout is the long-polling timeout for Telegram updates.
func (c *Config) UpdateTimeout() int {
	return c.Telegram.UpdateTimeoutSecs
}

// Location is the lounge's business time zone, used for calendar periods and cron.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("report.timezone %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}
