// Package config provides YAML-based configuration loading for the shop floor tracker.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from shopfloor.yaml.
type Config struct {
	Shop     string         `yaml:"shop"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Racks    []RackConfig   `yaml:"racks"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds connection settings. Driver is "mysql" or "sqlite".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"` // sqlite file
}

// HTTPConfig configures the scan API server.
type HTTPConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RackConfig provisions one storage rack. Active defaults to true.
type RackConfig struct {
	Name    string `yaml:"name"`
	Rows    int    `yaml:"rows"`
	Columns int    `yaml:"columns"`
	Active  *bool  `yaml:"active"`
}

// IsActive reports whether the rack should be provisioned as active.
func (r RackConfig) IsActive() bool {
	return r.Active == nil || *r.Active
}

// NotifyConfig controls where status-change events are delivered besides the
// live event stream.
type NotifyConfig struct {
	SlackWebhookURL     string `yaml:"slack_webhook_url"`
	DiscordWebhookID    string `yaml:"discord_webhook_id"`
	DiscordWebhookToken string `yaml:"discord_webhook_token"`
	Heartbeat           string `yaml:"heartbeat"` // cron spec, e.g. "@every 15s"
	Digest              string `yaml:"digest"`    // 5-field cron spec, empty disables
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // "json" or "console"
	Development bool   `yaml:"development"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" && c.Shop != "" {
		c.Database.Name = "shopfloor_" + strings.ReplaceAll(strings.ToLower(c.Shop), " ", "_")
	}
	if c.Database.Path == "" {
		c.Database.Path = "shopfloor.db"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Notify.Heartbeat == "" {
		c.Notify.Heartbeat = "@every 15s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Shop == "" {
		errs = append(errs, "shop is required")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (mysql, sqlite)", c.Database.Driver))
	}
	seen := make(map[string]bool)
	for i, r := range c.Racks {
		if r.Name == "" {
			errs = append(errs, fmt.Sprintf("racks[%d].name is required", i))
		} else if seen[r.Name] {
			errs = append(errs, fmt.Sprintf("racks[%d].name %q is duplicated", i, r.Name))
		}
		seen[r.Name] = true
		if r.Rows <= 0 {
			errs = append(errs, fmt.Sprintf("racks[%d].rows must be positive", i))
		}
		if r.Columns <= 0 {
			errs = append(errs, fmt.Sprintf("racks[%d].columns must be positive", i))
		}
	}
	if (c.Notify.DiscordWebhookID == "") != (c.Notify.DiscordWebhookToken == "") {
		errs = append(errs, "notify.discord_webhook_id and notify.discord_webhook_token must be set together")
	}
	for _, s := range []struct{ key, spec string }{
		{"notify.heartbeat", c.Notify.Heartbeat},
		{"notify.digest", c.Notify.Digest},
	} {
		if s.spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(s.spec); err != nil {
			errs = append(errs, fmt.Sprintf("%s %q: %v", s.key, s.spec, err))
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not supported (json, console)", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
