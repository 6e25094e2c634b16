package ports

import (
	"context"

	"github.com/adsb-labs/sbsship/internal/domain"
)

// EventSender delivers message batches to the ingestion sink.
// Implementations handle serialization, transport, authentication, and the
// retry policy around transient failures.
type EventSender interface {
	// Send delivers one batch. It returns nil once the sink has accepted
	// the whole batch, domain.ErrPermanentlyRejected when the sink refused
	// it in a way retries cannot fix, and domain.ErrRetriesExhausted when
	// transient failures outlasted the retry budget. A batch is accepted
	// or dropped atomically; there are no partial deliveries.
	Send(ctx context.Context, batch *domain.Batch, metadata SendMetadata) error
}

// SendMetadata provides context for the send operation.
type SendMetadata struct {
	// ServiceURL is the base URL of the ingestion service.
	ServiceURL string

	// AuthKey is the API write credential.
	AuthKey string

	// Session identifies this shipper process to the sink. One session is
	// minted per process start.
	Session string

	// Hostname is the shipping host, included for server-side tracking.
	Hostname string
}
