// Package sbsship provides an embeddable agent that tails a BaseStation
// (SBS-1) feed, parses its event lines, and ships them in batches to a
// remote log ingestion service.
//
// Example usage:
//
//	cfg := sbsship.DefaultConfig()
//	cfg.FeedAddr = "localhost:30003"
//	cfg.AuthKey = "your-api-key"
//	shipper, err := sbsship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := shipper.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer shipper.Stop()
package sbsship

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/adsb-labs/sbsship/internal/adapters/fs"
	httpAdapter "github.com/adsb-labs/sbsship/internal/adapters/http"
	logAdapter "github.com/adsb-labs/sbsship/internal/adapters/log"
	"github.com/adsb-labs/sbsship/internal/adapters/tcp"
	"github.com/adsb-labs/sbsship/internal/app"
	"github.com/adsb-labs/sbsship/internal/batch"
	"github.com/adsb-labs/sbsship/internal/cliconfig"
	"github.com/adsb-labs/sbsship/internal/domain"
	"github.com/adsb-labs/sbsship/internal/ports"
	"github.com/adsb-labs/sbsship/internal/sbs"
)

// Config holds the configuration for the shipper.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// Counters is a snapshot of the shipper's run counters.
type Counters = domain.Status

// DefaultServiceURL is the default endpoint for shipping events.
const DefaultServiceURL = cliconfig.DefaultServiceURL

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set AuthKey before calling New.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Shipper is a feed shipping agent that can be embedded in other applications.
// Use New() to create an instance, then Start() to begin shipping.
type Shipper struct {
	config      Config
	opts        options
	session     string
	lifecycle   *app.Lifecycle
	driver      *app.Driver
	accumulator *batch.Accumulator
	source      ports.LineSource
	sender      ports.EventSender
	statusRepo  ports.StatusRepository
	logger      ports.Logger

	// Plugin support
	plugins []Plugin

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Shipper instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin shipping.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	// Validate configuration and fill derived defaults
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	// Apply options
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	o := defaultOptions(httpClient)
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger
	if o.logger != nil {
		logger = o.logger
	} else {
		logger = logAdapter.NewNoopLogger()
	}

	// Create event emitter wrapper
	var emitter eventEmitterWrapper
	if o.eventHandler != nil {
		emitter = eventEmitterWrapper{handler: o.eventHandler}
	}

	// Create lifecycle manager
	lifecycle := app.NewLifecycle(logger, &emitter)

	// Create adapters
	source := tcp.NewLineSource(cfg.FeedAddr, logger).WithIdleTimeout(cfg.IdleTimeout)
	statusRepo := fs.NewStatusFileRepository(cfg.StatusDir)
	sender := httpAdapter.NewEventSender(o.httpClient, logger).
		WithRetryPolicy(cfg.MaxRetries, httpAdapter.DefaultBackoffInitial, httpAdapter.DefaultBackoffMax)

	// Create pipeline pieces
	parser := sbs.NewParser(sbs.Options{StrictFields: cfg.StrictFields})
	accumulator := batch.NewAccumulator(cfg.MaxBatchSize, cfg.MaxBatchInterval, cfg.MaxBuffered)

	// One session ID per shipper instance
	session := newSessionID()

	driverCfg := app.DriverConfig{
		MaxInFlight:     cfg.MaxInFlight,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Session:         session,
		Hostname:        hostname(),
		AuthKey:         cfg.AuthKey,
		ServiceURL:      cfg.ServiceURL,
	}
	driver := app.NewDriver(driverCfg, source, parser, accumulator, sender, statusRepo, logger, &emitter)

	return &Shipper{
		config:      cfg,
		opts:        o,
		session:     session,
		lifecycle:   lifecycle,
		driver:      driver,
		accumulator: accumulator,
		source:      source,
		sender:      sender,
		statusRepo:  statusRepo,
		logger:      logger,
		plugins:     o.plugins,
	}, nil
}

// Start begins feed shipping in the background.
// Returns immediately after starting the pipeline goroutine.
// Returns an error if already running or if startup fails.
// The provided context is used for the lifetime of the shipping operation.
func (s *Shipper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	// Transition to starting
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	// Create cancellable context
	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel
	s.lifecycle.SetCancel(cancel)

	// Initialize plugins
	pluginCfg := PluginConfig{
		FeedAddr:              s.config.FeedAddr,
		StatusDir:             s.config.StatusDir,
		ServiceURL:            s.config.ServiceURL,
		Session:               s.session,
		Logger:                s.logger,
		UpdateBatchThresholds: s.accumulator.UpdateThresholds,
	}
	for _, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		s.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	// Start the driver in a goroutine
	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()

		// Transition to running
		if err := s.lifecycle.TransitionTo(app.StateRunning, "pipeline starting"); err != nil {
			s.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		// Run the pipeline loop
		err := s.driver.Run(runCtx)

		// Handle completion
		if err != nil && err != context.Canceled {
			s.logger.Error("pipeline error", ports.Err(err))
			_ = s.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the shipper.
// Flushes pending batches and persists the run status.
// Waits up to the configured shutdown timeout before forcing shutdown.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (s *Shipper) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}

	// Transition to stopping
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}

	// Cancel the context
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Unlock()

	// Wait for workers with timeout. The driver's own final drain runs
	// within the same window, so pad the wait slightly.
	err := s.lifecycle.WaitWithTimeout(s.config.ShutdownTimeout + time.Second)

	// Shutdown plugins (in reverse order)
	shutdownCtx := context.Background()
	for i := len(s.plugins) - 1; i >= 0; i-- {
		p := s.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
		} else {
			s.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}

	// Transition to stopped
	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Shipper) Status() State {
	return convertState(s.lifecycle.State())
}

// Counters returns a snapshot of the run counters.
// Safe to call concurrently from any goroutine.
func (s *Shipper) Counters() Counters {
	return s.driver.Status()
}

// Session returns the session ID minted for this shipper instance.
func (s *Shipper) Session() string {
	return s.session
}

// hostname returns the current hostname.
func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnSendSuccess(eventCount int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendSuccess(SendSuccessEvent{
		EventCount: eventCount,
		Duration:   duration,
	})
}

func (e *eventEmitterWrapper) OnSendError(err error, eventCount int, retryable bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendError(SendErrorEvent{
		Error:      err,
		EventCount: eventCount,
		Retryable:  retryable,
	})
}

func (e *eventEmitterWrapper) OnRecordsDropped(count int, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnRecordsDropped(RecordsDroppedEvent{
		Count:  count,
		Reason: reason,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
