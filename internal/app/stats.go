package app

import (
	"errors"
	"sync"
	"time"

	"github.com/adsb-labs/sbsship/internal/domain"
)

// Stats accumulates run counters behind a mutex. The driver loop and the
// in-flight send goroutines all report into the same instance.
type Stats struct {
	mu     sync.Mutex
	status domain.Status
}

// NewStats creates a Stats seeded with a previously persisted status, so
// counters survive restarts.
func NewStats(initial domain.Status) *Stats {
	return &Stats{status: initial}
}

// Restore replaces the counters with a previously persisted status.
func (s *Stats) Restore(status domain.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// LineRead records one line pulled from the feed.
func (s *Stats) LineRead() {
	s.mu.Lock()
	s.status.LinesRead++
	s.mu.Unlock()
}

// MessageParsed records one line that produced a message.
func (s *Stats) MessageParsed() {
	s.mu.Lock()
	s.status.MessagesParsed++
	s.mu.Unlock()
}

// ParseFailure records one skipped line, bucketed by failure kind.
func (s *Stats) ParseFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case errors.Is(err, domain.ErrNotAnEvent):
		s.status.ParseFailures.NotAnEvent++
	case errors.Is(err, domain.ErrUnknownKind):
		s.status.ParseFailures.UnknownKind++
	case errors.Is(err, domain.ErrTruncated):
		s.status.ParseFailures.Truncated++
	case errors.Is(err, domain.ErrMissingIdent):
		s.status.ParseFailures.MissingIdent++
	default:
		// Strict-mode field errors land in the truncated bucket rather
		// than growing an open-ended category set.
		s.status.ParseFailures.Truncated++
	}
}

// BatchDelivered records one batch accepted by the sink.
func (s *Stats) BatchDelivered(at time.Time) {
	s.mu.Lock()
	s.status.BatchesDelivered++
	s.status.LastSendAt = at
	s.mu.Unlock()
}

// BatchDropped records one batch lost to a terminal delivery failure,
// along with the messages it carried.
func (s *Stats) BatchDropped(messages int) {
	s.mu.Lock()
	s.status.BatchesDropped++
	s.status.MessagesLost += uint64(messages)
	s.mu.Unlock()
}

// MessagesLost records messages dropped outside of delivery, such as
// buffer ceiling evictions or messages abandoned at shutdown.
func (s *Stats) MessagesLost(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.status.MessagesLost += uint64(n)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
