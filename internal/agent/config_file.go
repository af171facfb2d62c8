package agent

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config but uses strings for durations to make TOML friendly.
type fileConfig struct {
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	ReplicaURL       string `toml:"replica_url"`
	Folder           string `toml:"folder"`
	DBName           string `toml:"db"`
	Binary           string `toml:"binary"`
	ReplicateTimeout string `toml:"replicate_timeout"`
	Interval         string `toml:"interval"`
	StateDir         string `toml:"state_dir"`
	VerifyRestore    *bool  `toml:"verify_restore"`
	Once             *bool  `toml:"once"`
}

// loadFileConfig reads and parses a TOML config file.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// defaultConfigPath returns the default configuration file path.
// Returns ~/.snapship/config.toml if user home directory is accessible.
func defaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".snapship", "config.toml")
	}
	return ""
}

// applyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func applyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("access-key", fc.AccessKey, &cfg.AccessKey)
	s.setString("secret-key", fc.SecretKey, &cfg.SecretKey)
	s.setString("replica-url", fc.ReplicaURL, &cfg.ReplicaURL)
	s.setString("folder", fc.Folder, &cfg.Folder)
	s.setString("db", fc.DBName, &cfg.DBName)
	s.setString("binary", fc.Binary, &cfg.Binary)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)

	if err := s.setDuration("timeout", fc.ReplicateTimeout, &cfg.ReplicateTimeout); err != nil {
		return err
	}
	if err := s.setDuration("interval", fc.Interval, &cfg.Interval); err != nil {
		return err
	}

	s.setBool("verify-restore", fc.VerifyRestore, &cfg.VerifyRestore)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// fileExists checks if a file exists at the given path.
func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Exported functions for use from main package without exposing internal helpers.

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (fileConfig, error) {
	return loadFileConfig(path)
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return defaultConfigPath()
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	return applyFileConfig(cfg, fc, changed)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	return fileExists(p)
}
