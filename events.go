package sbsship

import "time"

// State represents the lifecycle state of a Shipper.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SendSuccessEvent is emitted after a batch is accepted by the sink.
type SendSuccessEvent struct {
	EventCount int
	Duration   time.Duration
}

// SendErrorEvent is emitted when a batch is dropped after delivery failed
// terminally. Retryable reports whether the failure was transient (retries
// exhausted) as opposed to a permanent rejection.
type SendErrorEvent struct {
	Error      error
	EventCount int
	Retryable  bool
}

// RecordsDroppedEvent is emitted when parsed messages are evicted at the
// buffer ceiling before ever reaching a batch. Batch delivery failures
// are reported through SendErrorEvent instead.
type RecordsDroppedEvent struct {
	Count  int
	Reason string
}

// DropReasonBufferCeiling is the reason carried by RecordsDroppedEvent
// for buffer ceiling evictions.
const DropReasonBufferCeiling = "buffer_ceiling"

// EventHandler receives shipper events. Handlers are invoked synchronously;
// implementations should return quickly or dispatch to their own goroutine.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnSendSuccess(event SendSuccessEvent)
	OnSendError(event SendErrorEvent)
	OnRecordsDropped(event RecordsDroppedEvent)
}
