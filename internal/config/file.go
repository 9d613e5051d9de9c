package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "bobil"
	configFile = "config.yaml"
)

// fileMutex serializes writes from this process
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/bobil or $HOME/.config/bobil
//   - macOS: $HOME/.config/bobil
//   - Windows: %LOCALAPPDATA%\bobil
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration at path. An empty path selects
// GetConfigPath(). A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func unmarshal(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal renders the config as YAML with a header comment.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte(`# bobil configuration file
# Command-line flags override the values below.

`)
	return append(header, data...), nil
}

// Save writes the config to path (GetConfigPath() when empty). The file is
// written to a temporary sibling and renamed into place.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
