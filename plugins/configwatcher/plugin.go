// Package configwatcher provides config file monitoring for sbsship.
// When enabled, it watches the config file and applies batch threshold
// changes to the running shipper without a restart.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/adsb-labs/sbsship"
	"github.com/adsb-labs/sbsship/internal/cliconfig"
	"github.com/adsb-labs/sbsship/internal/ports"
)

// Plugin implements config watching functionality.
// It monitors the sbsship config file and re-applies the batch size and
// batch interval when the file changes. Settings that cannot change at
// runtime (feed address, auth key, service URL) are ignored until restart.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	path          string
	debounceDelay time.Duration

	// Runtime state
	logger   sbsship.Logger
	update   func(maxBatchSize int, maxInterval time.Duration)
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the config file to watch. If empty, the default config path
	// is used.
	Path string

	// DebounceDelay is the delay to wait after a file change before applying.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Path:          cliconfig.DefaultConfigPath(),
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.Path == "" {
		cfg.Path = cliconfig.DefaultConfigPath()
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize sets up the plugin and starts the config watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg sbsship.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	p.update = cfg.UpdateBatchThresholds
	p.mu.Unlock()

	if p.path == "" || p.update == nil {
		p.logger.Warn("config watcher disabled: no config path or update hook")
		return nil
	}

	// Create cancellable context for the watcher loop
	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher plugin initialized", ports.String("path", p.path))

	// Start watcher loop
	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// watchLoop watches for config file changes. The parent directory is
// watched rather than the file itself, so editor save-by-rename still
// produces events.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("config watcher: failed to create watcher", ports.Err(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		p.logger.Error("config watcher: failed to watch directory", ports.Err(err))
		return
	}

	filename := filepath.Base(p.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceApply()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher: watcher error", ports.Err(err))
		}
	}
}

func (p *Plugin) debounceApply() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, p.applyConfig)
}

// applyConfig reloads the file and pushes the batch thresholds to the
// running accumulator.
func (p *Plugin) applyConfig() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Warn("config watcher: reload failed", ports.Err(err))
		return
	}

	var interval time.Duration
	if fc.MaxBatchInterval != "" {
		interval, err = time.ParseDuration(fc.MaxBatchInterval)
		if err != nil {
			p.logger.Warn("config watcher: bad batch interval", ports.Err(err))
			interval = 0
		}
	}

	if fc.MaxBatchSize <= 0 && interval <= 0 {
		return
	}

	p.update(fc.MaxBatchSize, interval)
	p.logger.Info("config watcher: applied batch thresholds",
		ports.Int("batch_size", fc.MaxBatchSize),
		ports.Duration("batch_interval", interval),
	)
}

// Ensure Plugin implements sbsship.Plugin.
var _ sbsship.Plugin = (*Plugin)(nil)
