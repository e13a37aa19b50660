// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all client configuration for talking to the yeoladin backend.
type Config struct {
	// BaseURL is the backend API base URL (e.g. "http://localhost:8080/api/auth")
	BaseURL string `json:"base_url"`
	// Timeout is the per-request deadline at the transport layer
	Timeout time.Duration `json:"timeout"`
	// UserAgent for HTTP requests
	UserAgent string `json:"user_agent"`

	// StateDir is the directory holding durable client state
	// (tokens, user info, board preferences)
	StateDir string `json:"state_dir"`

	// RequestsPerSecond limits outgoing request rate (0 = unlimited)
	RequestsPerSecond float64 `json:"requests_per_second"`
	// Burst is the token bucket burst size for the request limiter
	Burst int `json:"burst"`

	// ItemsPerPage is the page size for the main video list
	ItemsPerPage int `json:"items_per_page"`

	// Connection pool configuration
	MaxIdleConns        int           `json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             "http://localhost:8080/api/auth",
		Timeout:             10 * time.Second,
		UserAgent:           "yeoladin/1.0",
		StateDir:            defaultStateDir(),
		RequestsPerSecond:   0,
		Burst:               1,
		ItemsPerPage:        5,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

func defaultStateDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "yeoladin")
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.loadFromEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from yeoladin.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"yeoladin.json",
		filepath.Join(os.Getenv("HOME"), ".config", "yeoladin", "yeoladin.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YEOLADIN_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("YEOLADIN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("YEOLADIN_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("YEOLADIN_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("YEOLADIN_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("YEOLADIN_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Burst = n
		}
	}
	if v := os.Getenv("YEOLADIN_ITEMS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ItemsPerPage = n
		}
	}
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must be set")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("base_url is not a valid URL: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir must be set")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be >= 1")
	}
	if c.ItemsPerPage < 1 {
		return fmt.Errorf("items_per_page must be >= 1")
	}
	return nil
}
