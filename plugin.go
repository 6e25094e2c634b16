package sbsship

import (
	"context"
	"time"
)

// Plugin extends a Shipper with auxiliary behavior that shares its lifetime.
// Initialize is called during Start, before the pipeline begins; Shutdown is
// called during Stop, after the pipeline has drained.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize prepares the plugin. The context is canceled when the
	// shipper stops; long-running plugin work should watch it.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases plugin resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig is the view of the shipper handed to plugins.
type PluginConfig struct {
	FeedAddr   string
	StatusDir  string
	ServiceURL string
	Session    string
	Logger     Logger

	// UpdateBatchThresholds adjusts the running accumulator's batch size
	// and interval. Non-positive values leave the current setting.
	UpdateBatchThresholds func(maxBatchSize int, maxInterval time.Duration)
}
