package userconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "skillcred"
	configFileName = "config.yaml"
)

// Defaults used when neither flags nor the config file say otherwise
const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultWebURL     = "http://localhost:3000"
)

// UserConfig represents the user's local configuration stored in
// ~/.config/skillcred/config.yaml
type UserConfig struct {
	BackendURL     string `yaml:"backend_url,omitempty"`
	WebURL         string `yaml:"web_url,omitempty"`
	CredentialMode string `yaml:"credential_mode,omitempty"`
}

// Keys settable with "skillcred config set"
var Keys = []string{"backend_url", "web_url", "credential_mode"}

// Set assigns value to key
func (c *UserConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "backend_url":
		c.BackendURL = strings.TrimRight(value, "/")
	case "web_url":
		c.WebURL = strings.TrimRight(value, "/")
	case "credential_mode":
		mode := strings.ToLower(value)
		if mode != "bearer" && mode != "cookie" {
			return fmt.Errorf("invalid credential_mode %q, must be one of: bearer, cookie", value)
		}
		c.CredentialMode = mode
	default:
		return fmt.Errorf("unknown key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Backend returns the configured backend URL or the default
func (c *UserConfig) Backend() string {
	if c.BackendURL != "" {
		return c.BackendURL
	}
	return DefaultBackendURL
}

// Web returns the configured web front end URL or the default
func (c *UserConfig) Web() string {
	if c.WebURL != "" {
		return c.WebURL
	}
	return DefaultWebURL
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}
