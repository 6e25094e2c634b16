package ports

import (
	"context"
	"errors"
)

// LineSource provides raw event lines from the upstream feed.
// Implementations own the connection (dial, reconnect, read deadlines);
// the application core only ever sees lines.
type LineSource interface {
	// Open establishes the connection to the feed.
	Open(ctx context.Context) error

	// Next blocks until the next line is available, the idle timeout
	// elapses, or the context is canceled. Returns ErrIdle when no line
	// arrived within the idle window (the caller should run its periodic
	// checks and call Next again). Returns io.EOF when the feed closed
	// and could not be reestablished.
	Next(ctx context.Context) (string, error)

	// Close releases the connection.
	Close() error
}

// ErrIdle indicates that no line arrived within the source's idle window.
// It is a signal to the caller's polling loop, not a failure.
var ErrIdle = errors.New("sbsship: line source idle")
