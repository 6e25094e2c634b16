package domain

import "time"

// Status is the run status persisted to status.json between restarts.
// It carries counters only; undelivered batches are never persisted.
type Status struct {
	// LinesRead is the total number of lines pulled from the feed.
	LinesRead uint64 `json:"lines_read"`

	// MessagesParsed is the number of lines that produced a Message.
	MessagesParsed uint64 `json:"messages_parsed"`

	// ParseFailures counts skipped lines by failure kind.
	ParseFailures ParseFailureCounts `json:"parse_failures"`

	// BatchesDelivered is the number of batches accepted by the sink.
	BatchesDelivered uint64 `json:"batches_delivered"`

	// BatchesDropped is the number of batches lost to terminal delivery
	// failures (retries exhausted or permanent rejection).
	BatchesDropped uint64 `json:"batches_dropped"`

	// MessagesLost counts messages dropped anywhere: failed batches, buffer
	// ceiling evictions, and messages still buffered at shutdown deadline.
	MessagesLost uint64 `json:"messages_lost"`

	// LastSendAt is the wall-clock time of the last successful delivery.
	LastSendAt time.Time `json:"last_send_at"`
}

// ParseFailureCounts breaks parse failures down by kind.
type ParseFailureCounts struct {
	NotAnEvent   uint64 `json:"not_an_event"`
	UnknownKind  uint64 `json:"unknown_kind"`
	Truncated    uint64 `json:"truncated"`
	MissingIdent uint64 `json:"missing_ident"`
}

// Total returns the sum of all parse failure counts.
func (c ParseFailureCounts) Total() uint64 {
	return c.NotAnEvent + c.UnknownKind + c.Truncated + c.MissingIdent
}
