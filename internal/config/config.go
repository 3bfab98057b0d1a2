package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the scan root
const FileName = ".viewvalues.yml"

// Config represents the .viewvalues.yml configuration file
type Config struct {
	InstanceVar string        `yaml:"instance_var"`
	CheckUnused bool          `yaml:"check_unused"`
	Verbose     bool          `yaml:"verbose"`
	Ignores     IgnoresConfig `yaml:"ignores"`
}

// IgnoresConfig contains ignore rules for the check
type IgnoresConfig struct {
	Actions []string `yaml:"actions"` // "Controller#action" or a bare action name
	Keys    []string `yaml:"keys"`    // Keys never reported as missing or unused
}

// LoadConfig loads the .viewvalues.yml file from the specified directory
func LoadConfig(rootPath string) (*Config, error) {
	configPath := filepath.Join(rootPath, FileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{
				Ignores: IgnoresConfig{
					Actions: []string{},
					Keys:    []string{},
				},
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// ShouldIgnoreAction checks if controller#action is excluded via config
func (c *Config) ShouldIgnoreAction(controller, action string) bool {
	if c == nil {
		return false
	}
	full := controller + "#" + action
	for _, ignored := range c.Ignores.Actions {
		ignored = strings.TrimSpace(ignored)
		if ignored == full || ignored == action {
			return true
		}
	}
	return false
}

// ShouldIgnoreKey checks if a key should never be reported
func (c *Config) ShouldIgnoreKey(key string) bool {
	if c == nil {
		return false
	}
	for _, ignored := range c.Ignores.Keys {
		if ignored == key {
			return true
		}
	}
	return false
}

// DefaultContent is written by init-config
const DefaultContent = `# .viewvalues.yml
# Configuration file for viewvalues

# Accessor used in views, without the leading @ (default: view_values)
# instance_var: view_values

# Also fail when keys are declared but never used
check_unused: false

ignores:
  # Actions that are never checked, as "Controller#action" or a bare action name
  actions:
    # - Admin::DashboardController#index
  # Keys that are never reported as missing or unused
  keys:
    # - current_user
`
