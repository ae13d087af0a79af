package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the rivals bot
type Config struct {
	// Server settings
	Port int `env:"PORT" envDefault:"8000"`

	// Discord settings
	DiscordToken   string        `env:"DISCORD_TOKEN"`
	DiscordAppID   string        `env:"DISCORD_APP_ID"`
	DiscordGuildID string        `env:"DISCORD_GUILD_ID"` // empty registers commands globally
	MaxRetries     int           `env:"DISCORD_MAX_RETRIES" envDefault:"2"`
	RequestTimeout time.Duration `env:"DISCORD_REQUEST_TIMEOUT" envDefault:"20s"`

	// Static allow-list for restricted commands
	AuthorizedUserIDs []string `env:"AUTHORIZED_USER_IDS" envSeparator:","`

	// Storage settings
	DatabasePath string `env:"DATABASE_PATH" envDefault:"rivals.db"`
	CountersFile string `env:"COUNTERS_FILE"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Command sync settings
	SyncWorkers int `env:"SYNC_WORKERS" envDefault:"4"`

	// Interaction settings
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"30s"`
	ModalTimeout   time.Duration `env:"MODAL_TIMEOUT" envDefault:"60s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.DiscordToken = normalizeToken(cfg.DiscordToken)
	cfg.AuthorizedUserIDs = normalizeIDs(cfg.AuthorizedUserIDs)

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalizeToken strips surrounding quotes and an optional "Bot " prefix.
func normalizeToken(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	return strings.TrimSpace(strings.TrimPrefix(trimmed, "Bot "))
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Scope describes where commands are registered, for logs.
func (c *Config) Scope() string {
	if c.DiscordGuildID == "" {
		return "global"
	}
	return "guild:" + c.DiscordGuildID
}

// validate checks that all required configuration is present
func (c *Config) validate() error {
	if err := c.validateDiscordCredentials(); err != nil {
		return err
	}

	c.applyDefaults()
	return c.validateLimits()
}

func (c *Config) validateDiscordCredentials() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.DiscordAppID == "" {
		return fmt.Errorf("DISCORD_APP_ID is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SyncWorkers <= 0 {
		c.SyncWorkers = 4
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 20 * time.Second
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.ModalTimeout <= 0 {
		c.ModalTimeout = time.Minute
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		c.DatabasePath = "rivals.db"
	}
}

func (c *Config) validateLimits() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.SyncWorkers > 16 {
		return fmt.Errorf("SYNC_WORKERS must be at most 16")
	}
	if c.MaxRetries > 10 {
		return fmt.Errorf("DISCORD_MAX_RETRIES must be at most 10")
	}
	return nil
}
