package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SBSSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("feed-addr", os.Getenv("SBSSHIP_FEED_ADDR"), &cfg.FeedAddr)
	s.setString("service-url", os.Getenv("SBSSHIP_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("SBSSHIP_AUTH_KEY"), &cfg.AuthKey)
	s.setString("status-dir", os.Getenv("SBSSHIP_STATUS_DIR"), &cfg.StatusDir)

	if err := s.setDuration("batch-interval", os.Getenv("SBSSHIP_BATCH_INTERVAL"), &cfg.MaxBatchInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("SBSSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("idle-timeout", os.Getenv("SBSSHIP_IDLE_TIMEOUT"), &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("SBSSHIP_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("batch-size", os.Getenv("SBSSHIP_MAX_BATCH_SIZE"), &cfg.MaxBatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-buffered", os.Getenv("SBSSHIP_MAX_BUFFERED"), &cfg.MaxBuffered); err != nil {
		return err
	}
	if err := s.setIntFromString("max-in-flight", os.Getenv("SBSSHIP_MAX_IN_FLIGHT"), &cfg.MaxInFlight); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", os.Getenv("SBSSHIP_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}

	s.setBoolFromString("strict-fields", os.Getenv("SBSSHIP_STRICT_FIELDS"), &cfg.StrictFields)

	return nil
}
