package configwatcher

import "github.com/adsb-labs/sbsship"

// WithConfigWatcher returns a sbsship Option that enables config file
// watching. When the file changes, batch thresholds are applied to the
// running shipper.
//
// Usage:
//
//	shipper, err := sbsship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path: "/etc/sbsship/config.toml",
//	    }),
//	)
func WithConfigWatcher(cfg Config) sbsship.Option {
	plugin := New(cfg)
	return sbsship.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns a sbsship Option that enables config
// watching of the default config path with default settings.
//
// Usage:
//
//	shipper, err := sbsship.New(cfg, configwatcher.WithDefaultConfigWatcher())
func WithDefaultConfigWatcher() sbsship.Option {
	return WithConfigWatcher(DefaultConfig())
}
