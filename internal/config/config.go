package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

const (
	MinTimeout = 1
	MaxTimeout = 300
	MinRetries = 1
	MaxRetries = 10
)

// Config represents the main application configuration
type Config struct {
	APIToken  string        `toml:"api_token"`
	BaseURL   string        `toml:"base_url"`
	CompanyID string        `toml:"company_id"`
	Loglevel  string        `toml:"loglevel"`
	Retries   int           `toml:"retries"`
	Timeout   int           `toml:"timeout"`
	Sandbox   SandboxConfig `toml:"sandbox"`
}

// SandboxConfig holds the settings of the local fake API server
type SandboxConfig struct {
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
	CompanyID   string `toml:"company_id"`
	APIToken    string `toml:"api_token"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  "https://api.recruitee.com",
		Loglevel: "info",
		Retries:  1,
		Timeout:  10,
		Sandbox: SandboxConfig{
			BindAddress: "127.0.0.1",
			Port:        9292,
			CompanyID:   "sandbox",
			APIToken:    "sandbox-token",
		},
	}
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "recruitee")

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads configuration from a TOML file
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// RequestTimeout returns the configured timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Validate checks if the configuration is valid for talking to the API
func (c *Config) Validate() error {
	if c.CompanyID == "" {
		return fmt.Errorf("company_id is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("api_token is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.ParseRequestURI(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url is invalid: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https")
	}
	if _, err := logrus.ParseLevel(c.Loglevel); err != nil {
		return fmt.Errorf("loglevel must be one of: panic, fatal, error, warn, info, debug, trace")
	}
	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return fmt.Errorf("timeout must be between %d and %d seconds", MinTimeout, MaxTimeout)
	}
	if c.Retries < MinRetries || c.Retries > MaxRetries {
		return fmt.Errorf("retries must be between %d and %d", MinRetries, MaxRetries)
	}

	return nil
}

// ValidateSandbox checks the settings needed to serve the sandbox
func (c *Config) ValidateSandbox() error {
	if _, err := logrus.ParseLevel(c.Loglevel); err != nil {
		return fmt.Errorf("loglevel must be one of: panic, fatal, error, warn, info, debug, trace")
	}
	if c.Sandbox.Port < 0 || c.Sandbox.Port > 65535 {
		return fmt.Errorf("sandbox.port must be between 0 and 65535")
	}
	if c.Sandbox.CompanyID == "" {
		return fmt.Errorf("sandbox.company_id is required")
	}
	if c.Sandbox.APIToken == "" {
		return fmt.Errorf("sandbox.api_token is required")
	}
	return nil
}
