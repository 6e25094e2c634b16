// Package batch accumulates parsed messages until a batch is ready to ship.
package batch

import (
	"sync"
	"time"

	"github.com/adsb-labs/sbsship/internal/domain"
)

// Accumulator buffers messages in arrival order and decides when the buffer
// should be flushed, based on a count threshold and an elapsed-time threshold,
// whichever trips first. The interval clock restarts on every drain.
//
// Push and Drain are only ever called from the pipeline driver goroutine;
// the mutex exists so the config watcher can adjust thresholds at runtime.
// It is never held across a network call.
type Accumulator struct {
	mu  sync.Mutex
	buf []*domain.Message

	maxBatchSize int
	maxInterval  time.Duration
	maxBuffered  int

	lastDrain time.Time
	dropped   uint64

	now func() time.Time
}

// NewAccumulator creates an accumulator with the given thresholds.
// maxBuffered is the hard buffer ceiling; once reached, pushing evicts the
// oldest message rather than blocking the reader.
func NewAccumulator(maxBatchSize int, maxInterval time.Duration, maxBuffered int) *Accumulator {
	a := &Accumulator{
		buf:          make([]*domain.Message, 0, maxBatchSize),
		maxBatchSize: maxBatchSize,
		maxInterval:  maxInterval,
		maxBuffered:  maxBuffered,
		now:          time.Now,
	}
	a.lastDrain = a.now()
	return a
}

// WithClock replaces the accumulator's clock. Used by tests.
func (a *Accumulator) WithClock(now func() time.Time) *Accumulator {
	a.now = now
	a.lastDrain = now()
	return a
}

// Push appends a message to the buffer, preserving arrival order.
// At the buffer ceiling the oldest message is evicted and counted; the
// caller is never blocked.
func (a *Accumulator) Push(m *domain.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.maxBuffered > 0 && len(a.buf) >= a.maxBuffered {
		a.buf = a.buf[1:]
		a.dropped++
	}
	a.buf = append(a.buf, m)
}

// ShouldFlush reports whether the buffer has reached the count threshold or
// the interval since the last drain has elapsed. An empty buffer never needs
// flushing.
func (a *Accumulator) ShouldFlush() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.buf) == 0 {
		return false
	}
	if a.maxBatchSize > 0 && len(a.buf) >= a.maxBatchSize {
		return true
	}
	return a.maxInterval > 0 && a.now().Sub(a.lastDrain) >= a.maxInterval
}

// Drain removes and returns all buffered messages as one batch and restarts
// the interval clock. Draining an empty buffer is a no-op that returns an
// empty batch and leaves the clock untouched.
func (a *Accumulator) Drain() *domain.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := domain.NewBatch()
	if len(a.buf) == 0 {
		return b
	}
	b.Messages = a.buf
	a.buf = make([]*domain.Message, 0, a.maxBatchSize)
	a.lastDrain = a.now()
	return b
}

// Len returns the number of buffered messages.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Dropped returns the running count of messages evicted at the buffer
// ceiling and resets it to zero.
func (a *Accumulator) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := a.dropped
	a.dropped = 0
	return d
}

// UpdateThresholds replaces the batch size and interval thresholds.
// Applied by the config watcher while the pipeline runs; takes effect on the
// next ShouldFlush check. Non-positive values leave the current setting.
func (a *Accumulator) UpdateThresholds(maxBatchSize int, maxInterval time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if maxBatchSize > 0 {
		a.maxBatchSize = maxBatchSize
	}
	if maxInterval > 0 {
		a.maxInterval = maxInterval
	}
}
