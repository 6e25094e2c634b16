package ports

import (
	"context"

	"github.com/adsb-labs/sbsship/internal/domain"
)

// StatusRepository persists run status between restarts.
// Status is observability data, not delivery state: losing it never loses
// messages.
type StatusRepository interface {
	// Load retrieves the last saved status.
	// Returns a zero status and nil error if none exists.
	Load(ctx context.Context) (domain.Status, error)

	// Save persists the current status atomically (write to a temp file,
	// then rename) so a crash never leaves a corrupt file.
	Save(ctx context.Context, status domain.Status) error
}
