package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/adsb-labs/sbsship"
	logAdapter "github.com/adsb-labs/sbsship/internal/adapters/log"
	"github.com/adsb-labs/sbsship/internal/cliconfig"
	"github.com/adsb-labs/sbsship/plugins/configwatcher"
)

const helpDescription = `
Tail a BaseStation (SBS-1) feed such as dump1090's port 30003 output and
ship the decoded aircraft events to a log ingestion service in batches.

Highlights:
  - Batches by size and time, with a hard buffer ceiling so memory stays flat.
  - Survives feed restarts and transient service errors; drops cleanly when it must.
  - Configure via file ($HOME/.sbsship/config.toml), SBSSHIP_* env vars, or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  sbsship --feed-addr localhost:30003 --auth-key <api-key>
  sbsship --config $HOME/.sbsship/config.toml --batch-size 200
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "sbsship",
		Short:   "Ship a BaseStation aircraft feed to a log ingestion service",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.sbsship/config.toml), then apply flag overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (SBSSHIP_*)
			// These override file config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration (masking API key)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			// Create zerolog adapter for the library
			zerologAdapter := logAdapter.NewZerologAdapterWithLogger(log)

			shipper, err := sbsship.New(cfg,
				sbsship.WithLogger(zerologAdapter),
				// Enable config watcher plugin
				configwatcher.WithConfigWatcher(configwatcher.Config{Path: cfgFile}),
			)
			if err != nil {
				return fmt.Errorf("create shipper: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := shipper.Start(ctx); err != nil {
				return fmt.Errorf("start shipper: %w", err)
			}

			// Create done channel to detect completion
			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := shipper.Status()
						if status == sbsship.StateStopped || status == sbsship.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			// Wait for signal or completion
			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if shipper.Status() == sbsship.StateCrashed {
					log.Error().Msg("shipper crashed")
				}
			}

			// Graceful shutdown
			if err := shipper.Stop(); err != nil {
				return fmt.Errorf("stop shipper: %w", err)
			}

			counters := shipper.Counters()
			log.Info().
				Uint64("lines_read", counters.LinesRead).
				Uint64("messages_parsed", counters.MessagesParsed).
				Uint64("batches_delivered", counters.BatchesDelivered).
				Uint64("messages_lost", counters.MessagesLost).
				Msg("final counters")
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.sbsship/config.toml)")
	root.Flags().StringVar(&cfg.FeedAddr, "feed-addr", cfg.FeedAddr, "BaseStation feed address (host:port)")

	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, fmt.Sprintf("base service URL (defaults to %s)", cliconfig.DefaultServiceURL))
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for authentication")

	root.Flags().IntVar(&cfg.MaxBatchSize, "batch-size", cfg.MaxBatchSize, "maximum events per batch")
	root.Flags().DurationVar(&cfg.MaxBatchInterval, "batch-interval", cfg.MaxBatchInterval, "maximum time before a non-empty batch is shipped")
	root.Flags().IntVar(&cfg.MaxBuffered, "max-buffered", cfg.MaxBuffered, "buffer ceiling; oldest events are dropped beyond it")
	root.Flags().IntVar(&cfg.MaxInFlight, "max-in-flight", cfg.MaxInFlight, "maximum concurrent batch deliveries")
	root.Flags().IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "delivery attempts per batch before it is dropped")

	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "feed read window before periodic checks run")
	if err := root.Flags().MarkHidden("idle-timeout"); err != nil {
		log.Info().Err(err).Msg("failed to hide idle-timeout flag")
	}
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown deadline")

	root.Flags().StringVar(&cfg.StatusDir, "status-dir", cfg.StatusDir, "directory for status.json (defaults to $HOME/.sbsship)")
	root.Flags().BoolVar(&cfg.StrictFields, "strict-fields", cfg.StrictFields, "discard records with malformed numeric fields instead of keeping the rest")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("sbsship")
		os.Exit(1)
	}
}
