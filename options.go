package sbsship

import (
	"net/http"

	"github.com/adsb-labs/sbsship/internal/ports"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Option configures optional behavior of the Shipper.
type Option func(*options)

// options holds the optional configuration for a Shipper instance.
type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	plugins      []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient:   client,
		logger:       nil,
		eventHandler: nil,
		plugins:      nil,
	}
}

// WithHTTPClient sets a custom HTTP client for API communication.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for shipper events.
// Events are called synchronously from the pipeline goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the Shipper starts.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
