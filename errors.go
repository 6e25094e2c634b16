package sbsship

import "github.com/adsb-labs/sbsship/internal/domain"

// Re-exported sentinel errors, checkable with errors.Is on values returned
// by New, Start, and Stop.
var (
	// ErrAlreadyRunning is returned by Start on a running instance.
	ErrAlreadyRunning = domain.ErrAlreadyRunning

	// ErrNotRunning is returned by Stop on a stopped instance.
	ErrNotRunning = domain.ErrNotRunning

	// ErrShutdownTimeout is returned by Stop when graceful shutdown ran out
	// of time and was forced.
	ErrShutdownTimeout = domain.ErrShutdownTimeout

	// ErrInvalidConfig wraps configuration validation failures from New.
	ErrInvalidConfig = domain.ErrInvalidConfig
)
