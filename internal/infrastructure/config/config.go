package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Terminal  TerminalConfig
	Workspace WorkspaceConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// Global shares one bucket across all clients instead of one per IP
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" default:"false"`
}

// CORSConfig holds cross-origin configuration.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// TerminalConfig holds interactive terminal configuration.
type TerminalConfig struct {
	Enabled         bool          `envconfig:"TERMINAL_ENABLED" default:"false"`
	Shell           string        `envconfig:"TERMINAL_SHELL"`
	BufferSize      int           `envconfig:"TERMINAL_BUFFER_SIZE" default:"1000"`
	ReplaySize      int           `envconfig:"TERMINAL_REPLAY_SIZE" default:"200"`
	Heartbeat       time.Duration `envconfig:"TERMINAL_HEARTBEAT" default:"15s"`
	SubscriberQueue int           `envconfig:"TERMINAL_SUBSCRIBER_QUEUE" default:"4096"`
	KillGrace       time.Duration `envconfig:"TERMINAL_KILL_GRACE" default:"3s"`
	ReapAfter       time.Duration `envconfig:"TERMINAL_REAP_AFTER" default:"0s"`
	SpawnThreshold  uint32        `envconfig:"TERMINAL_SPAWN_FAILURE_THRESHOLD" default:"5"`
	SpawnCooldown   time.Duration `envconfig:"TERMINAL_SPAWN_COOLDOWN" default:"30s"`
}

// WorkspaceConfig holds workspace registry configuration.
type WorkspaceConfig struct {
	File string `envconfig:"WORKSPACES_FILE"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Terminal: TerminalConfig{
			Enabled:         false,
			BufferSize:      1000,
			ReplaySize:      200,
			Heartbeat:       15 * time.Second,
			SubscriberQueue: 4096,
			KillGrace:       3 * time.Second,
			SpawnThreshold:  5,
			SpawnCooldown:   30 * time.Second,
		},
	}
}

// Validate rejects settings the terminal subsystem cannot run with.
func (c *Config) Validate() error {
	t := c.Terminal
	switch {
	case t.BufferSize <= 0:
		return fmt.Errorf("TERMINAL_BUFFER_SIZE must be positive, got %d", t.BufferSize)
	case t.ReplaySize <= 0:
		return fmt.Errorf("TERMINAL_REPLAY_SIZE must be positive, got %d", t.ReplaySize)
	case t.ReplaySize > t.BufferSize:
		return fmt.Errorf("TERMINAL_REPLAY_SIZE (%d) must not exceed TERMINAL_BUFFER_SIZE (%d)", t.ReplaySize, t.BufferSize)
	case t.Heartbeat <= 0:
		return fmt.Errorf("TERMINAL_HEARTBEAT must be positive, got %s", t.Heartbeat)
	case t.SubscriberQueue <= 0:
		return fmt.Errorf("TERMINAL_SUBSCRIBER_QUEUE must be positive, got %d", t.SubscriberQueue)
	case t.ReapAfter < 0:
		return fmt.Errorf("TERMINAL_REAP_AFTER must not be negative, got %s", t.ReapAfter)
	case t.SpawnThreshold > 0 && t.SpawnCooldown <= 0:
		return fmt.Errorf("TERMINAL_SPAWN_COOLDOWN must be positive, got %s", t.SpawnCooldown)
	}
	return nil
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// AllowAllOrigins reports whether CORS is open to every origin.
func (c CORSConfig) AllowAllOrigins() bool {
	for _, origin := range c.Origins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return len(c.Origins) == 0
}
