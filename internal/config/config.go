package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all portal configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Planday  PlandayConfig  `yaml:"planday"`
	Identity IdentityConfig `yaml:"identity"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Finance  FinanceConfig  `yaml:"finance"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	IdleTimeout  string `yaml:"idle_timeout"`
	TemplateDir  string `yaml:"template_dir"`
}

// PlandayConfig configures the scheduling API client.
type PlandayConfig struct {
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	RefreshToken string `yaml:"refresh_token"`
	Timeout      string `yaml:"timeout"`

	// Paging and lookup limits
	PageSize          int `yaml:"page_size"`
	MaxPages          int `yaml:"max_pages"`
	LookupConcurrency int `yaml:"lookup_concurrency"`

	// Default statuses when a request omits them
	DefaultStatuses []string `yaml:"default_statuses"`
}

// IdentityConfig configures the hosted auth provider used for "get current user".
type IdentityConfig struct {
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres, sqlite3
	URL    string `yaml:"url"`
}

// FinanceConfig points at the spreadsheet that backs the KPI views.
type FinanceConfig struct {
	Workbook string `yaml:"workbook"` // local path or http(s) URL
	Sheet    string `yaml:"sheet"`
	CacheTTL string `yaml:"cache_ttl"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "10s",
			WriteTimeout: "60s",
			IdleTimeout:  "120s",
			TemplateDir:  "ui/templates",
		},
		Planday: PlandayConfig{
			BaseURL:           "https://openapi.planday.com",
			TokenURL:          "https://id.planday.com/connect/token",
			Timeout:           "15s",
			PageSize:          200,
			MaxPages:          200,
			LookupConcurrency: 6,
			DefaultStatuses:   []string{"Published", "Open"},
		},
		Identity: IdentityConfig{
			Timeout: "5s",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			URL:    "data/portal.db",
		},
		Finance: FinanceConfig{
			Workbook: "data/finance.xlsx",
			CacheTTL: "5m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if v := os.Getenv("PLANDAY_CLIENT_ID"); v != "" {
		c.Planday.ClientID = v
	}
	if v := os.Getenv("PLANDAY_REFRESH_TOKEN"); v != "" {
		c.Planday.RefreshToken = v
	}
	if v := os.Getenv("PLANDAY_BASE_URL"); v != "" {
		c.Planday.BaseURL = v
	}
	if v := os.Getenv("PLANDAY_TOKEN_URL"); v != "" {
		c.Planday.TokenURL = v
	}
	if v := os.Getenv("IDENTITY_URL"); v != "" {
		c.Identity.URL = v
	}
	if v := os.Getenv("IDENTITY_API_KEY"); v != "" {
		c.Identity.APIKey = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("FINANCE_WORKBOOK"); v != "" {
		c.Finance.Workbook = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports the first configuration problem that would stop the server.
func (c *Config) Validate() error {
	if c.Planday.ClientID == "" || c.Planday.RefreshToken == "" {
		return fmt.Errorf("planday client_id and refresh_token are required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.Logging.Level)
	}
	if c.Auth.Enabled && c.Identity.URL == "" {
		return fmt.Errorf("identity url is required when auth is enabled")
	}
	return nil
}

// Duration parses s, returning fallback when s is empty or malformed.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
