// Package config provides YAML-based configuration loading for Minutes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted for secrets that are left empty in YAML.
const (
	EnvDBPassword      = "MM_DB_PASSWORD"
	EnvSlackBotToken   = "MM_SLACK_BOT_TOKEN"
	EnvDiscordBotToken = "MM_DISCORD_BOT_TOKEN"
)

// Database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config is the top-level Minutes configuration, loaded from minutes.yaml.
type Config struct {
	Owner    string         `yaml:"owner"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Series   []SeriesConfig `yaml:"series"`
	Digest   DigestConfig   `yaml:"digest"`
}

// DatabaseConfig holds connection settings for the backing store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port       int           `yaml:"port"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// SeriesConfig declares a meeting series seeded on db init.
type SeriesConfig struct {
	Name    string `yaml:"name"`
	Project string `yaml:"project"`
}

// DigestConfig controls the pending action-item digest.
type DigestConfig struct {
	Schedule string        `yaml:"schedule"`
	Platform string        `yaml:"platform"`
	Channel  string        `yaml:"channel"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack credentials.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds Discord credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file next to the config, if present, is loaded into the process
// environment first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, statErr := os.Stat(envPath); statErr == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv fills empty secrets from the environment.
func (c *Config) applyEnv() {
	if c.Database.Password == "" {
		c.Database.Password = os.Getenv(EnvDBPassword)
	}
	if c.Digest.Slack.BotToken == "" {
		c.Digest.Slack.BotToken = os.Getenv(EnvSlackBotToken)
	}
	if c.Digest.Discord.BotToken == "" {
		c.Digest.Discord.BotToken = os.Getenv(EnvDiscordBotToken)
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMySQL
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
	if c.Database.Database == "" && c.Owner != "" {
		c.Database.Database = "minutes_" + c.Owner
	}
	if c.Database.Path == "" {
		c.Database.Path = "minutes.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 2 * time.Hour
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Owner == "" {
		errs = append(errs, "owner is required")
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (mysql, sqlite)", c.Database.Driver))
	}
	for i, s := range c.Series {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("series[%d].name is required", i))
		}
	}
	if c.Digest.Schedule != "" || c.Digest.Platform != "" {
		switch c.Digest.Platform {
		case "slack":
			if c.Digest.Slack.BotToken == "" {
				errs = append(errs, "digest.slack.bot_token is required for platform slack")
			}
		case "discord":
			if c.Digest.Discord.BotToken == "" {
				errs = append(errs, "digest.discord.bot_token is required for platform discord")
			}
		default:
			errs = append(errs, fmt.Sprintf("digest.platform %q is not supported (slack, discord)", c.Digest.Platform))
		}
		if c.Digest.Channel == "" {
			errs = append(errs, "digest.channel is required")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
