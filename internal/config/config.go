// Package config manages offboard application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxWait is the default convergence poll deadline.
const DefaultMaxWait = 30 * time.Minute

// DefaultExchangeBaseURL is the default Exchange admin API endpoint.
const DefaultExchangeBaseURL = "https://admin.exchange.microsoft.com"

// Config holds the offboard application configuration. Credentials for the
// app registration come from here (or the OFFBOARD_CLIENT_SECRET env var);
// the tool never acquires them interactively.
type Config struct {
	TenantID        string   `yaml:"tenant_id"`
	ClientID        string   `yaml:"client_id"`
	ClientSecret    string   `yaml:"client_secret,omitempty"`
	ExchangeBaseURL string   `yaml:"exchange_base_url,omitempty"`
	MaxWaitMinutes  int      `yaml:"max_wait_minutes,omitempty"`
	FullAccess      []string `yaml:"full_access,omitempty"`
	Reviewers       []string `yaml:"reviewers,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ExchangeBaseURL: DefaultExchangeBaseURL,
	}
}

// Load reads a config file from the given path. If the file does not exist,
// it returns the default config. OFFBOARD_CLIENT_SECRET overrides the
// stored secret so it can stay out of the file entirely.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if secret := os.Getenv("OFFBOARD_CLIENT_SECRET"); secret != "" {
		cfg.ClientSecret = secret
	}
	if cfg.ExchangeBaseURL == "" {
		cfg.ExchangeBaseURL = DefaultExchangeBaseURL
	}
	return cfg, nil
}

// Save writes a config to the given path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// LoadDefaultWithPath resolves the config path via ConfigPath() and loads
// the config. Returns the config, the resolved path, and any error.
func LoadDefaultWithPath() (*Config, string, error) {
	cfgPath, err := ConfigPath()
	if err != nil {
		return nil, "", fmt.Errorf("failed to determine config path: %w", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, cfgPath, nil
}

// MaxWait returns the configured convergence deadline, falling back to
// DefaultMaxWait when unset.
func (c *Config) MaxWait() time.Duration {
	if c.MaxWaitMinutes <= 0 {
		return DefaultMaxWait
	}
	return time.Duration(c.MaxWaitMinutes) * time.Minute
}

// ConfigDir returns the default config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".offboard"), nil
}

// ConfigPath returns the config file path, respecting the OFFBOARD_CONFIG env var.
func ConfigPath() (string, error) {
	if p := os.Getenv("OFFBOARD_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
