/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/trialdata/xportio/pkg/engine"
)

// Config represents the xport tool configuration
type Config struct {
	DataDir    string      `yaml:"data_dir"`
	CatalogDir string      `yaml:"catalog_dir"`
	Port       int         `yaml:"port"`
	Bind       string      `yaml:"bind"`
	Write      WritePolicy `yaml:"write"`
	Security   Security    `yaml:"security"`
	Logging    Logging     `yaml:"logging"`
}

// WritePolicy contains the defaults applied when encoding transport files
type WritePolicy struct {
	Version    string `yaml:"version"`     // V5 or V8
	PadChar    string `yaml:"pad_char"`    // "space" or "nul"
	SASVersion string `yaml:"sas_version"` // stamped into library headers
	OS         string `yaml:"os"`
}

// Security contains security-related configuration
type Security struct {
	ClientAPIKey string `yaml:"client_api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:    "./data",
		CatalogDir: "./catalog",
		Port:       8080,
		Bind:       "127.0.0.1",
		Write: WritePolicy{
			Version:    "V5",
			PadChar:    "space",
			SASVersion: "9.4",
			OS:         "LINUX",
		},
		Security: Security{
			ClientAPIKey: "",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// PadMode resolves the configured pad policy to the writer's pad mode.
func (p WritePolicy) PadMode() (engine.PadMode, error) {
	switch p.PadChar {
	case "", "space":
		return engine.PadSpace, nil
	case "nul":
		return engine.PadNUL, nil
	default:
		return 0, fmt.Errorf("unknown pad_char %q (want \"space\" or \"nul\")", p.PadChar)
	}
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key if it doesn't exist
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	clientAPIKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate client API key: %w", err)
	}
	config.Security.ClientAPIKey = clientAPIKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	// Use OS-specific default locations
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./xport.yaml"
	}

	// For Linux/macOS, use ~/.config/xport/config.yaml
	configDir := filepath.Join(homeDir, ".config", "xport")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
