package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds persistent defaults for the CLI. Every field can be
// overridden by the corresponding command-line flag.
type Config struct {
	// Target is the default target kind, "ve" or "pbs".
	Target string `yaml:"target"`

	// Node is the Proxmox node name used for node-scoped API calls.
	Node string `yaml:"node"`

	// APIURL is the management endpoint for remote mode, e.g.
	// https://pve1.example.com:8006. Empty means local mode.
	APIURL string `yaml:"api_url,omitempty"`

	// Email is the default ACME contact email.
	Email string `yaml:"email,omitempty"`

	// Directory is the ACME directory URL used when registering accounts.
	Directory string `yaml:"directory"`

	// WaitSeconds is the delay before the first verification poll.
	WaitSeconds int `yaml:"wait_seconds"`

	// PollIntervalSeconds is the delay between verification polls.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// PollAttempts is the maximum number of verification polls.
	PollAttempts int `yaml:"poll_attempts"`
}

// configDir is the default config directory
const configDir = ".config/proxmox-ssl-setup"
const configFile = "config.yaml"

// DefaultDirectory is the production Let's Encrypt ACME directory.
const DefaultDirectory = "https://acme-v02.api.letsencrypt.org/directory"

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Target:              "ve",
		Node:                "localhost",
		Directory:           DefaultDirectory,
		WaitSeconds:         30,
		PollIntervalSeconds: 10,
		PollAttempts:        12,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Empty values from a sparse file fall back to defaults
	if cfg.Directory == "" {
		cfg.Directory = DefaultDirectory
	}
	if cfg.Node == "" {
		cfg.Node = "localhost"
	}
	if cfg.WaitSeconds <= 0 {
		cfg.WaitSeconds = 30
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 10
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 12
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The config never holds credentials, but keep it private anyway
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
