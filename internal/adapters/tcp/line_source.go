// Package tcp implements the LineSource port against a BaseStation
// (SBS-1) feed such as dump1090's port 30003 output.
package tcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/adsb-labs/sbsship/internal/ports"
)

// Default connection tuning values.
const (
	DefaultDialTimeout      = 5 * time.Second
	DefaultIdleTimeout      = 500 * time.Millisecond
	DefaultReconnectInitial = 1 * time.Second
	DefaultReconnectMax     = 30 * time.Second
)

// LineSource streams text lines from a BaseStation TCP feed.
//
// The source owns reconnection: a dropped connection is re-dialed with
// exponential backoff and the stream resumes from whatever the feed sends
// next. A partial line interrupted by a read deadline is held and completed
// on the following read; a partial line interrupted by a disconnect is
// discarded.
type LineSource struct {
	addr   string
	logger ports.Logger

	dialTimeout      time.Duration
	idleTimeout      time.Duration
	reconnectInitial time.Duration
	reconnectMax     time.Duration

	conn    net.Conn
	reader  *bufio.Reader
	partial strings.Builder
}

// NewLineSource creates a line source for the given host:port address.
func NewLineSource(addr string, logger ports.Logger) *LineSource {
	return &LineSource{
		addr:             addr,
		logger:           logger,
		dialTimeout:      DefaultDialTimeout,
		idleTimeout:      DefaultIdleTimeout,
		reconnectInitial: DefaultReconnectInitial,
		reconnectMax:     DefaultReconnectMax,
	}
}

// WithIdleTimeout overrides how long Next waits for feed data before
// reporting ports.ErrIdle. The pipeline driver relies on this window to run
// its periodic flush checks, so it must not be coarser than the batching
// interval.
func (s *LineSource) WithIdleTimeout(d time.Duration) *LineSource {
	if d > 0 {
		s.idleTimeout = d
	}
	return s
}

// Open establishes the initial connection, retrying with backoff until the
// feed accepts or the context ends.
func (s *LineSource) Open(ctx context.Context) error {
	return s.connect(ctx)
}

// connect dials until success or context cancellation.
func (s *LineSource) connect(ctx context.Context) error {
	backoff := s.reconnectInitial
	for {
		dialer := net.Dialer{Timeout: s.dialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", s.addr)
		if err == nil {
			s.conn = conn
			s.reader = bufio.NewReader(conn)
			s.logger.Info("connected to feed", ports.String("addr", s.addr))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Warn("feed connection failed",
			ports.String("addr", s.addr),
			ports.Err(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.reconnectMax {
			backoff = s.reconnectMax
		}
	}
}

// Next returns the next complete line from the feed, without its line
// terminator. It returns ports.ErrIdle when the idle window elapsed with no
// complete line, and reconnects transparently on feed disconnects.
func (s *LineSource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.conn == nil {
			if err := s.connect(ctx); err != nil {
				return "", err
			}
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			return "", fmt.Errorf("set read deadline: %w", err)
		}

		chunk, err := s.reader.ReadString('\n')
		if err == nil {
			line := s.partial.String() + chunk
			s.partial.Reset()
			return strings.TrimRight(line, "\r\n"), nil
		}

		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			// Keep any partial line for the next read.
			s.partial.WriteString(chunk)
			return "", ports.ErrIdle
		}

		// Disconnect: drop the partial line, reconnect, resume.
		s.partial.Reset()
		s.closeConn()
		if err == io.EOF {
			s.logger.Warn("feed closed, reconnecting", ports.String("addr", s.addr))
		} else {
			s.logger.Warn("feed read error, reconnecting",
				ports.String("addr", s.addr),
				ports.Err(err),
			)
		}
	}
}

// Close releases the connection.
func (s *LineSource) Close() error {
	s.closeConn()
	return nil
}

func (s *LineSource) closeConn() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.reader = nil
	}
}
