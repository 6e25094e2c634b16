package batch

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsb-labs/sbsship/internal/domain"
)

func msg(ident string) *domain.Message {
	return &domain.Message{MessageType: "MSG", TransmissionType: 3, HexIdent: ident}
}

// manualClock advances only when told to.
type manualClock struct {
	at time.Time
}

func (c *manualClock) now() time.Time          { return c.at }
func (c *manualClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newManualClock() *manualClock {
	return &manualClock{at: time.Unix(1704110400, 0)}
}

func TestShouldFlushOnCount(t *testing.T) {
	clock := newManualClock()
	a := NewAccumulator(3, time.Minute, 0).WithClock(clock.now)

	a.Push(msg("A"))
	a.Push(msg("B"))
	assert.False(t, a.ShouldFlush())

	a.Push(msg("C"))
	// Count threshold trips with zero elapsed time.
	assert.True(t, a.ShouldFlush())
}

func TestShouldFlushOnInterval(t *testing.T) {
	clock := newManualClock()
	a := NewAccumulator(100, 5*time.Second, 0).WithClock(clock.now)

	a.Push(msg("A"))
	assert.False(t, a.ShouldFlush())

	clock.advance(5 * time.Second)
	assert.True(t, a.ShouldFlush())
}

func TestShouldFlushEmptyBuffer(t *testing.T) {
	clock := newManualClock()
	a := NewAccumulator(1, time.Nanosecond, 0).WithClock(clock.now)

	clock.advance(time.Hour)
	// Thresholds long past, but nothing to ship.
	assert.False(t, a.ShouldFlush())
}

func TestDrainPreservesOrder(t *testing.T) {
	a := NewAccumulator(100, time.Minute, 0)

	for i := 0; i < 10; i++ {
		a.Push(msg(strconv.Itoa(i)))
	}

	b := a.Drain()
	require.Equal(t, 10, b.Size())
	for i, m := range b.Messages {
		assert.Equal(t, strconv.Itoa(i), m.HexIdent)
	}
	assert.Equal(t, 0, a.Len())
}

func TestDrainResetsIntervalClock(t *testing.T) {
	clock := newManualClock()
	a := NewAccumulator(100, 5*time.Second, 0).WithClock(clock.now)

	a.Push(msg("A"))
	clock.advance(5 * time.Second)
	require.True(t, a.ShouldFlush())
	require.Equal(t, 1, a.Drain().Size())

	a.Push(msg("B"))
	clock.advance(4 * time.Second)
	assert.False(t, a.ShouldFlush())
	clock.advance(time.Second)
	assert.True(t, a.ShouldFlush())
}

func TestDrainEmptyIsNoOp(t *testing.T) {
	clock := newManualClock()
	a := NewAccumulator(100, 5*time.Second, 0).WithClock(clock.now)

	a.Push(msg("A"))
	clock.advance(3 * time.Second)
	require.Equal(t, 1, a.Drain().Size())

	clock.advance(2 * time.Second)
	b := a.Drain()
	assert.True(t, b.Empty())

	// The empty drain must not have restarted the interval clock.
	a.Push(msg("B"))
	clock.advance(3 * time.Second)
	assert.True(t, a.ShouldFlush(), "5s elapsed since the last real drain")
}

func TestBufferCeilingDropsOldest(t *testing.T) {
	a := NewAccumulator(1000, time.Minute, 3)

	for i := 0; i < 5; i++ {
		a.Push(msg(strconv.Itoa(i)))
	}

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, uint64(2), a.Dropped())
	assert.Equal(t, uint64(0), a.Dropped(), "Dropped resets the counter")

	b := a.Drain()
	require.Equal(t, 3, b.Size())
	assert.Equal(t, "2", b.Messages[0].HexIdent)
	assert.Equal(t, "4", b.Messages[2].HexIdent)
}

func TestUpdateThresholds(t *testing.T) {
	clock := newManualClock()
	a := NewAccumulator(10, time.Minute, 0).WithClock(clock.now)

	a.Push(msg("A"))
	a.Push(msg("B"))
	assert.False(t, a.ShouldFlush())

	a.UpdateThresholds(2, 0)
	assert.True(t, a.ShouldFlush())

	// Non-positive values leave settings untouched.
	a.UpdateThresholds(0, -1)
	assert.True(t, a.ShouldFlush())
}
