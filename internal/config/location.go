package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "TTYCONSOLE_CONFIG"

// GetConfigPath returns the configuration file path. It first checks the
// TTYCONSOLE_CONFIG environment variable, then falls back to the default
// location (~/.ttyconsole/config).
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(EnvConfigPath); configPath != "" {
		return configPath, nil
	}

	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config"), nil
}

// GetConfigDir returns the directory holding the configuration file, which
// is also the default home of the history file and the filesystem root.
func GetConfigDir() (string, error) {
	if configPath := os.Getenv(EnvConfigPath); configPath != "" {
		return filepath.Dir(configPath), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ttyconsole"), nil
}

// EnsureConfigDir ensures that the configuration directory exists.
func EnsureConfigDir() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
