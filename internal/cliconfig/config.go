// Package cliconfig holds the CLI-facing configuration: defaults, a TOML
// config file, SBSSHIP_* environment variables, and flags, applied in
// flags > env > file > defaults order.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultServiceURL is the default endpoint for shipping events.
const DefaultServiceURL = "https://app.scalyr.com"

// DefaultFeedPort is the BaseStation output port appended to a feed address
// given without one.
const DefaultFeedPort = "30003"

// Config holds CLI configuration for sbsship.
type Config struct {
	FeedAddr string

	ServiceURL string
	AuthKey    string

	MaxBatchSize     int
	MaxBatchInterval time.Duration
	MaxBuffered      int
	MaxInFlight      int
	MaxRetries       int

	HTTPTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	StatusDir    string
	StrictFields bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FeedAddr:         "localhost:" + DefaultFeedPort,
		ServiceURL:       DefaultServiceURL,
		MaxBatchSize:     500,
		MaxBatchInterval: 5 * time.Second,
		MaxBuffered:      10000,
		MaxInFlight:      4,
		MaxRetries:       4,
		HTTPTimeout:      15 * time.Second,
		IdleTimeout:      500 * time.Millisecond,
		ShutdownTimeout:  30 * time.Second,
		StatusDir:        "", // Derived from the home directory during Validate
		AuthKey:          os.Getenv("SBSSHIP_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.AuthKey == "" {
		return fmt.Errorf("auth-key is required")
	}

	if c.FeedAddr == "" {
		return fmt.Errorf("feed-addr is required")
	}
	if !strings.Contains(c.FeedAddr, ":") {
		c.FeedAddr = c.FeedAddr + ":" + DefaultFeedPort
	}

	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}

	// Ensure no trailing slash
	if len(c.ServiceURL) > 0 && c.ServiceURL[len(c.ServiceURL)-1] == '/' {
		c.ServiceURL = c.ServiceURL[:len(c.ServiceURL)-1]
	}

	if c.StatusDir == "" {
		if h, err := os.UserHomeDir(); err == nil {
			c.StatusDir = filepath.Join(h, ".sbsship")
		} else {
			c.StatusDir = "."
		}
	}

	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if c.MaxBatchInterval <= 0 {
		return fmt.Errorf("batch interval must be positive")
	}
	if c.MaxBuffered < c.MaxBatchSize {
		return fmt.Errorf("max buffered must be at least the batch size")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
