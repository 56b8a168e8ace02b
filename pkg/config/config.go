// Copyright 2024-2026 Aiku AI

// Package config loads the relay configuration from an optional YAML file,
// a .env file, and the process environment, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultChannelName is the reserved channel and webhook name the relay
// matches on.
const DefaultChannelName = "globalchat-rs"

// Config holds the process configuration.
type Config struct {
	// Token is the Discord bot token. Env: DISCORD_TOKEN.
	Token string `yaml:"token"`
	// DatabaseURL is the Postgres connection string for the relay mapping
	// store. Env: DATABASE_URL.
	DatabaseURL string `yaml:"database_url"`
	// ChannelName is the reserved relay channel/webhook name.
	ChannelName string `yaml:"channel_name"`
	// AdminAddr is the listen address for the /metrics and /healthz
	// endpoints. Empty disables the listener.
	AdminAddr string `yaml:"admin_addr"`
	// LogLevel is a zerolog level name (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// AttachmentTimeoutSeconds bounds each attachment download. Zero
	// leaves the HTTP client defaults in place.
	AttachmentTimeoutSeconds int `yaml:"attachment_timeout_seconds"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// AttachmentTimeout returns the configured per-download bound.
func (c *Config) AttachmentTimeout() time.Duration {
	return time.Duration(c.AttachmentTimeoutSeconds) * time.Second
}

// Load reads the configuration. A .env file in the working directory is
// loaded into the environment first if present. path names an optional
// YAML file; an empty path skips the file stage. Environment variables
// override file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ChannelName:              DefaultChannelName,
		LogLevel:                 "info",
		AttachmentTimeoutSeconds: 30,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Token == "" {
		return nil, errors.New("missing Discord token (set DISCORD_TOKEN or token in the config file)")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("missing database URL (set DATABASE_URL or database_url in the config file)")
	}
	if cfg.ChannelName == "" {
		cfg.ChannelName = DefaultChannelName
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("GLOBALCHAT_CHANNEL_NAME"); v != "" {
		cfg.ChannelName = v
	}
	if v := os.Getenv("GLOBALCHAT_ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	if v := os.Getenv("GLOBALCHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GLOBALCHAT_ATTACHMENT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AttachmentTimeoutSeconds = n
		}
	}
}
