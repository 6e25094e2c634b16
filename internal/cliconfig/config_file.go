package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	FeedAddr         string `toml:"feed_addr"`
	ServiceURL       string `toml:"service_url"`
	AuthKey          string `toml:"auth_key"`
	MaxBatchSize     int    `toml:"max_batch_size"`
	MaxBatchInterval string `toml:"batch_interval"`
	MaxBuffered      int    `toml:"max_buffered"`
	MaxInFlight      int    `toml:"max_in_flight"`
	MaxRetries       int    `toml:"max_retries"`
	HTTPTimeout      string `toml:"http_timeout"`
	IdleTimeout      string `toml:"idle_timeout"`
	ShutdownTimeout  string `toml:"shutdown_timeout"`
	StatusDir        string `toml:"status_dir"`
	StrictFields     *bool  `toml:"strict_fields"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.sbsship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".sbsship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("feed-addr", fc.FeedAddr, &cfg.FeedAddr)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("status-dir", fc.StatusDir, &cfg.StatusDir)

	if err := s.setDuration("batch-interval", fc.MaxBatchInterval, &cfg.MaxBatchInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("idle-timeout", fc.IdleTimeout, &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setInt("batch-size", fc.MaxBatchSize, &cfg.MaxBatchSize)
	s.setInt("max-buffered", fc.MaxBuffered, &cfg.MaxBuffered)
	s.setInt("max-in-flight", fc.MaxInFlight, &cfg.MaxInFlight)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	s.setBool("strict-fields", fc.StrictFields, &cfg.StrictFields)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
