// Package app contains the pipeline driver and lifecycle state machine.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adsb-labs/sbsship/internal/batch"
	"github.com/adsb-labs/sbsship/internal/domain"
	"github.com/adsb-labs/sbsship/internal/ports"
	"github.com/adsb-labs/sbsship/internal/sbs"
)

// DefaultMaxInFlight bounds concurrent batch deliveries.
const DefaultMaxInFlight = 4

// DefaultStatusSaveInterval is how often run counters are persisted.
const DefaultStatusSaveInterval = 10 * time.Second

// DriverConfig contains configuration for the pipeline driver loop.
type DriverConfig struct {
	MaxInFlight        int
	StatusSaveInterval time.Duration
	ShutdownTimeout    time.Duration

	// Metadata for send operations
	Session    string
	Hostname   string
	AuthKey    string
	ServiceURL string
}

// Driver orchestrates the read-parse-batch-ship loop.
//
// One goroutine (Run) reads lines, parses them, and accumulates messages.
// Ready batches are handed to send goroutines, bounded by MaxInFlight; when
// every slot is busy the flush waits for the next loop pass while the read
// loop keeps ingesting, and the accumulator's drop-oldest ceiling bounds
// memory in the meantime.
type Driver struct {
	config      DriverConfig
	source      ports.LineSource
	parser      *sbs.Parser
	accumulator *batch.Accumulator
	sender      ports.EventSender
	statusRepo  ports.StatusRepository
	logger      ports.Logger
	stats       *Stats
	emitter     SendEventEmitter

	inflight chan struct{}
	sends    sync.WaitGroup
}

// SendEventEmitter is called on send success or failure, and when
// messages are evicted at the buffer ceiling.
type SendEventEmitter interface {
	OnSendSuccess(eventCount int, duration time.Duration)
	OnSendError(err error, eventCount int, retryable bool)
	OnRecordsDropped(count int, reason string)
}

// NewDriver creates a new driver with the given dependencies.
func NewDriver(
	config DriverConfig,
	source ports.LineSource,
	parser *sbs.Parser,
	accumulator *batch.Accumulator,
	sender ports.EventSender,
	statusRepo ports.StatusRepository,
	logger ports.Logger,
	emitter SendEventEmitter,
) *Driver {
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = DefaultMaxInFlight
	}
	if config.StatusSaveInterval <= 0 {
		config.StatusSaveInterval = DefaultStatusSaveInterval
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = ShutdownTimeout
	}
	return &Driver{
		config:      config,
		source:      source,
		parser:      parser,
		accumulator: accumulator,
		sender:      sender,
		statusRepo:  statusRepo,
		logger:      logger,
		stats:       NewStats(domain.Status{}),
		emitter:     emitter,
		inflight:    make(chan struct{}, config.MaxInFlight),
	}
}

// Status returns a snapshot of the run counters.
func (d *Driver) Status() domain.Status {
	return d.stats.Snapshot()
}

// Run executes the main pipeline loop.
// It reads feed lines, parses them into messages, batches them, and ships
// ready batches to the remote service. Returns when the context is canceled
// or an unrecoverable error occurs.
func (d *Driver) Run(ctx context.Context) error {
	// Restore counters from the last run
	status, err := d.statusRepo.Load(ctx)
	if err != nil {
		d.logger.Error("failed to load status", ports.Err(err))
		// Continue with zero counters
	}
	d.stats.Restore(status)

	if err := d.source.Open(ctx); err != nil {
		return err
	}
	defer d.source.Close()

	// Sends outlive the run context so in-flight batches can complete
	// during graceful shutdown.
	sendCtx, cancelSends := context.WithCancel(context.Background())
	defer cancelSends()

	lastSave := time.Now()

	for {
		select {
		case <-ctx.Done():
			d.shutdown(cancelSends)
			return ctx.Err()
		default:
		}

		line, err := d.source.Next(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrIdle) {
				// No feed data; run the periodic checks.
				if d.accumulator.ShouldFlush() {
					d.flush(sendCtx)
				}
				d.maybeSaveStatus(ctx, &lastSave)
				continue
			}
			if ctx.Err() != nil {
				d.shutdown(cancelSends)
				return ctx.Err()
			}
			d.logger.Error("feed read failed", ports.Err(err))
			d.shutdown(cancelSends)
			return err
		}

		d.stats.LineRead()

		msg, perr := d.parser.Parse(line)
		if perr != nil {
			d.stats.ParseFailure(perr)
			d.logger.Debug("skipped line", ports.Err(perr), ports.String("line", line))
		} else {
			d.accumulator.Push(msg)
			d.stats.MessageParsed()
		}

		if d.accumulator.ShouldFlush() {
			d.flush(sendCtx)
		}
		d.maybeSaveStatus(ctx, &lastSave)
	}
}

// flush hands the buffered messages to a send goroutine. The slot claim is
// non-blocking: with every slot busy the flush is skipped and the read loop
// keeps ingesting, leaving the accumulator's ceiling as the last-resort
// valve. Nothing is drained until a slot is held, so a skipped flush never
// strands a batch.
func (d *Driver) flush(sendCtx context.Context) {
	select {
	case d.inflight <- struct{}{}:
	default:
		return
	}

	d.recordEvictions()

	b := d.accumulator.Drain()
	if b.Empty() {
		<-d.inflight
		return
	}

	d.sends.Add(1)
	go func() {
		defer d.sends.Done()
		defer func() { <-d.inflight }()
		d.send(sendCtx, b)
	}()
}

// recordEvictions folds buffer ceiling evictions into the loss counters
// and surfaces them to the event handler.
func (d *Driver) recordEvictions() {
	dropped := int(d.accumulator.Dropped())
	if dropped == 0 {
		return
	}

	d.logger.Warn("buffer ceiling reached, oldest messages dropped",
		ports.Int("count", dropped),
	)
	d.stats.MessagesLost(dropped)
	if d.emitter != nil {
		d.emitter.OnRecordsDropped(dropped, "buffer_ceiling")
	}
}

// send delivers one batch and records the outcome. The sender owns retries;
// an error here is terminal and the batch is gone.
func (d *Driver) send(ctx context.Context, b *domain.Batch) {
	metadata := ports.SendMetadata{
		ServiceURL: d.config.ServiceURL,
		AuthKey:    d.config.AuthKey,
		Session:    d.config.Session,
		Hostname:   d.config.Hostname,
	}

	start := time.Now()
	err := d.sender.Send(ctx, b, metadata)
	duration := time.Since(start)

	if err != nil {
		retryable := !errors.Is(err, domain.ErrPermanentlyRejected)
		d.logger.Error("batch dropped",
			ports.Err(err),
			ports.Int("events", b.Size()),
		)

		d.stats.BatchDropped(b.Size())
		if d.emitter != nil {
			d.emitter.OnSendError(err, b.Size(), retryable)
		}
		return
	}

	d.logger.Info("sent batch",
		ports.Int("events", b.Size()),
		ports.Duration("duration", duration),
	)

	d.stats.BatchDelivered(time.Now())
	if d.emitter != nil {
		d.emitter.OnSendSuccess(b.Size(), duration)
	}
}

// shutdown performs the final drain and waits for in-flight sends, bounded
// by the shutdown timeout. Batches still unsent at the deadline are
// abandoned and counted as lost.
func (d *Driver) shutdown(cancelSends context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownTimeout)
	defer cancel()

	d.recordEvictions()

	if b := d.accumulator.Drain(); !b.Empty() {
		d.send(ctx, b)
	}

	done := make(chan struct{})
	go func() {
		d.sends.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("shutdown deadline reached with sends in flight",
			ports.Duration("timeout", d.config.ShutdownTimeout),
		)
		cancelSends()
		<-done
	}

	if err := d.statusRepo.Save(context.Background(), d.stats.Snapshot()); err != nil {
		d.logger.Error("failed to save status", ports.Err(err))
	}
}

// maybeSaveStatus persists counters when the save interval has elapsed.
func (d *Driver) maybeSaveStatus(ctx context.Context, lastSave *time.Time) {
	if time.Since(*lastSave) < d.config.StatusSaveInterval {
		return
	}
	*lastSave = time.Now()

	if err := d.statusRepo.Save(ctx, d.stats.Snapshot()); err != nil {
		d.logger.Error("failed to save status", ports.Err(err))
	}
}
